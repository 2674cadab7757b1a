package capability

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/resource"
)

// Resource kinds accepted in catalog files.
const (
	KindDescriptor   = "descriptor"
	KindPushConstant = "push_constant"
	KindInput        = "input"
	KindRayPayload   = "ray_payload"
	KindHitAttribute = "hit_attribute"
)

// File is the YAML form of a catalog.
//
//	resources:
//	  - name: camera
//	    kind: descriptor
//	    set: camera
//	    binding: 0
//	    type: "uniform CameraBlock { mat4 viewProj; vec3 position; }"
//	capabilities:
//	  - name: camera.position
//	    resource: camera
//	    member: position
//	    type: vec3
type File struct {
	Resources    []ResourceSpec   `yaml:"resources"`
	Capabilities []CapabilitySpec `yaml:"capabilities"`
}

// ResourceSpec describes one resource in a catalog file.
type ResourceSpec struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Type     string `yaml:"type"`
	Set      string `yaml:"set,omitempty"`
	Binding  uint32 `yaml:"binding,omitempty"`
	Layout   string `yaml:"layout,omitempty"`
	Suffix   string `yaml:"suffix,omitempty"`
	UserID   uint32 `yaml:"user_id,omitempty"`
	Size     uint32 `yaml:"size,omitempty"`
	Location uint32 `yaml:"location,omitempty"`
	Incoming bool   `yaml:"incoming,omitempty"`

	resource.Requirements `yaml:",inline"`
}

// CapabilitySpec describes one capability in a catalog file. The access
// expression is the resource accessor, optionally followed by a member
// access of the given type.
type CapabilitySpec struct {
	Name     string   `yaml:"name"`
	Resource string   `yaml:"resource"`
	Member   string   `yaml:"member,omitempty"`
	Type     string   `yaml:"type,omitempty"`
	Also     []string `yaml:"also,omitempty"`
	Depends  []string `yaml:"depends,omitempty"`
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cfg, err := LoadYAML(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadYAML reads a catalog from YAML. Every problem in the file is reported,
// not only the first one.
func LoadYAML(r io.Reader) (*Config, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return file.Config()
}

// Config builds a catalog from the file contents.
func (f *File) Config() (*Config, error) {
	cfg := NewConfig()
	var result *multierror.Error

	for _, spec := range f.Resources {
		res, err := spec.toResource()
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if _, err := cfg.AddResource(res, spec.Requirements); err != nil {
			result = multierror.Append(result, err)
		}
	}

	for _, spec := range f.Capabilities {
		if err := spec.link(cfg); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, spec := range f.Capabilities {
		if len(spec.Depends) == 0 {
			continue
		}
		deps := make([]Capability, 0, len(spec.Depends))
		for _, d := range spec.Depends {
			deps = append(deps, New(d))
		}
		if err := cfg.Depend(New(spec.Name), deps...); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s ResourceSpec) toResource() (resource.Resource, error) {
	switch s.Kind {
	case KindDescriptor:
		return resource.DescriptorBinding{Set: s.Set, Binding: s.Binding, Layout: s.Layout, Type: s.Type, Name: s.Name, Suffix: s.Suffix}, nil
	case KindPushConstant:
		return resource.PushConstant{Name: s.Name, Type: s.Type, UserID: s.UserID, Size: s.Size}, nil
	case KindInput:
		return resource.ShaderInput{Name: s.Name, Type: s.Type, Location: s.Location}, nil
	case KindRayPayload:
		return resource.RayPayload{Name: s.Name, Type: s.Type, Incoming: s.Incoming}, nil
	case KindHitAttribute:
		return resource.HitAttribute{Name: s.Name, Type: s.Type}, nil
	default:
		return nil, diag.New(diag.UnresolvedResource, "resource %s: unknown kind %q", s.Name, s.Kind).WithResource(s.Name)
	}
}

func (s CapabilitySpec) link(cfg *Config) error {
	id, ok := cfg.ResourceID(s.Resource)
	if !ok {
		return diag.New(diag.UnresolvedResource, "capability %s: unknown resource %q", s.Name, s.Resource).WithResource(s.Name)
	}
	ids := []resource.ID{id}
	for _, name := range s.Also {
		extra, ok := cfg.ResourceID(name)
		if !ok {
			return diag.New(diag.UnresolvedResource, "capability %s: unknown resource %q", s.Name, name).WithResource(s.Name)
		}
		ids = append(ids, extra)
	}

	b := cfg.Builder()
	value := cfg.Access(id)
	if s.Member != "" {
		typ := ir.NoType
		if s.Type != "" {
			inner, ok := resource.ParseType(s.Type)
			if !ok {
				return diag.New(diag.TypeMismatch, "capability %s: unknown type %q", s.Name, s.Type).WithResource(s.Name)
			}
			typ = b.Type(inner)
		}
		value = b.MemberTyped(value, s.Member, typ)
	}
	return cfg.Link(New(s.Name), value, ids...)
}
