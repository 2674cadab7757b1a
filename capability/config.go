package capability

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/resource"
)

// Capability is an abstract name for a piece of shader-accessible data,
// such as the camera position. Capabilities compare by key.
type Capability struct {
	key string
}

// New returns the capability with the given key.
func New(key string) Capability {
	return Capability{key: key}
}

// String returns the capability key.
func (c Capability) String() string {
	return c.key
}

// link binds a capability to its access expression and backing resources.
type link struct {
	value     ir.ValueHandle
	resources []resource.ID
	depends   []Capability
}

// Config is a capability catalog: a table of resources and a table mapping
// capabilities to access expressions over them.
//
// A Config is mutable while it is being populated and read-only afterwards;
// a populated Config may be shared by concurrent compilations.
type Config struct {
	builder *ir.Builder

	entries  []resource.Entry
	byName   map[string]resource.ID
	accessor []ir.ValueHandle

	links map[Capability]*link
	order []Capability
}

// NewConfig creates an empty catalog.
func NewConfig() *Config {
	return &Config{
		builder: ir.NewBuilder(),
		byName:  make(map[string]resource.ID),
		links:   make(map[Capability]*link),
	}
}

// Builder returns the builder of the catalog's own arena. Access
// expressions linked to capabilities must be built with it.
func (c *Config) Builder() *ir.Builder {
	return c.builder
}

// AddResource registers a resource and returns its stable ID. Resource
// names must be unique within the catalog.
func (c *Config) AddResource(res resource.Resource, reqs resource.Requirements) (resource.ID, error) {
	name := res.ResourceName()
	if name == "" {
		return 0, diag.New(diag.UnresolvedResource, "resource %T has no name", res)
	}
	if _, exists := c.byName[name]; exists {
		return 0, diag.New(diag.UnresolvedResource, "resource %s registered twice", name).WithResource(name)
	}

	id := resource.ID(len(c.entries)) //nolint:gosec // G115: resource count fits in uint32
	c.entries = append(c.entries, resource.Entry{Resource: res, Requirements: reqs})
	c.byName[name] = id
	c.accessor = append(c.accessor, c.builder.Identifier(res.Accessor(), c.accessorType(res)))
	return id, nil
}

// accessorType derives the IR type of a resource accessor from its GLSL
// type name. Block declarations stay untyped.
func (c *Config) accessorType(res resource.Resource) ir.TypeHandle {
	var name string
	switch r := res.(type) {
	case resource.PushConstant:
		name = r.Type
	case resource.ShaderInput:
		name = r.Type
	case resource.RayPayload:
		name = r.Type
	case resource.HitAttribute:
		name = r.Type
	case resource.DescriptorBinding:
		// "uniform sampler2D" declares an opaque accessor.
		if _, after, found := cutLastSpace(r.Type); found && r.Suffix == "" {
			name = after
		}
	}
	inner, ok := resource.ParseType(name)
	if !ok {
		return ir.NoType
	}
	return c.builder.Type(inner)
}

func cutLastSpace(s string) (string, string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// Resource returns the resource registered under id.
func (c *Config) Resource(id resource.ID) (resource.Entry, bool) {
	if int(id) >= len(c.entries) {
		return resource.Entry{}, false
	}
	return c.entries[id], true
}

// Resources returns every registered resource in ID order.
func (c *Config) Resources() []resource.Entry {
	return append([]resource.Entry(nil), c.entries...)
}

// ResourceID returns the ID of a resource by name.
func (c *Config) ResourceID(name string) (resource.ID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Access returns the identifier value naming the accessor of a resource.
// It panics if id was not returned by AddResource.
func (c *Config) Access(id resource.ID) ir.ValueHandle {
	return c.accessor[id]
}

// Link binds a capability to an access expression built in the catalog
// arena and the resources that expression reads. Linking a capability
// again replaces its previous binding.
func (c *Config) Link(capability Capability, value ir.ValueHandle, ids ...resource.ID) error {
	if _, ok := c.builder.Module().Value(value); !ok {
		return diag.New(diag.UnresolvedResource, "capability %s: value %d is not in the catalog arena", capability, value).WithResource(capability.key)
	}
	for _, id := range ids {
		if int(id) >= len(c.entries) {
			return diag.New(diag.UnresolvedResource, "capability %s: unknown resource %d", capability, id).WithResource(capability.key)
		}
	}

	l, exists := c.links[capability]
	if !exists {
		l = &link{}
		c.links[capability] = l
		c.order = append(c.order, capability)
	}
	l.value = value
	l.resources = append([]resource.ID(nil), ids...)
	return nil
}

// LinkResource binds a capability directly to a resource accessor.
func (c *Config) LinkResource(capability Capability, id resource.ID) error {
	if int(id) >= len(c.entries) {
		return diag.New(diag.UnresolvedResource, "capability %s: unknown resource %d", capability, id).WithResource(capability.key)
	}
	return c.Link(capability, c.Access(id), id)
}

// Depend records that reading capability also requires the resources of
// deps. Dependencies are followed transitively at query time.
func (c *Config) Depend(capability Capability, deps ...Capability) error {
	l, ok := c.links[capability]
	if !ok {
		return diag.New(diag.UnresolvedResource, "capability %s is not linked", capability).WithResource(capability.key)
	}
	l.depends = append(l.depends, deps...)
	return nil
}

// Lookup returns the access expression and direct resources of a capability.
func (c *Config) Lookup(capability Capability) (ir.Ref, []resource.ID, bool) {
	l, ok := c.links[capability]
	if !ok {
		return ir.Ref{}, nil, false
	}
	return ir.Ref{Module: c.builder.Module(), Value: l.value}, l.resources, true
}

// Capabilities returns every linked capability in link order.
func (c *Config) Capabilities() []Capability {
	return append([]Capability(nil), c.order...)
}

// Validate checks that every dependency names a linked capability and that
// dependencies are acyclic. All problems are reported together.
func (c *Config) Validate() error {
	var result *multierror.Error

	for _, capability := range c.order {
		for _, dep := range c.links[capability].depends {
			if _, ok := c.links[dep]; !ok {
				result = multierror.Append(result, fmt.Errorf("capability %s depends on unlinked capability %s", capability, dep))
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Capability]int, len(c.links))
	var visit func(Capability, []Capability)
	visit = func(capability Capability, path []Capability) {
		switch state[capability] {
		case visiting:
			result = multierror.Append(result, fmt.Errorf("capability dependency cycle: %v", append(path, capability)))
			return
		case done:
			return
		}
		state[capability] = visiting
		if l, ok := c.links[capability]; ok {
			for _, dep := range l.depends {
				visit(dep, append(path, capability))
			}
		}
		state[capability] = done
	}
	for _, capability := range c.order {
		visit(capability, nil)
	}

	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	userIDs := make(map[uint32]string)
	for _, name := range names {
		res := c.entries[c.byName[name]].Resource
		if err := checkResource(res); err != nil {
			result = multierror.Append(result, err)
		}
		if pc, ok := res.(resource.PushConstant); ok {
			if prev, dup := userIDs[pc.UserID]; dup {
				result = multierror.Append(result, fmt.Errorf("push constants %s and %s share user id %d", prev, pc.Name, pc.UserID))
			}
			userIDs[pc.UserID] = pc.Name
		}
	}

	return result.ErrorOrNil()
}

// checkResource reports resources whose declaration cannot be generated.
func checkResource(res resource.Resource) error {
	switch r := res.(type) {
	case resource.PushConstant:
		if _, ok := resource.LayoutOf(r.Type); !ok && r.Size == 0 {
			return fmt.Errorf("push constant %s: unknown type %q and no size", r.Name, r.Type)
		}
	case resource.DescriptorBinding:
		if r.Set == "" {
			return fmt.Errorf("descriptor binding %s: empty set name", r.Name)
		}
		if r.Type == "" {
			return fmt.Errorf("descriptor binding %s: empty type", r.Name)
		}
	case resource.ShaderInput:
		if r.Type == "" {
			return fmt.Errorf("shader input %s: empty type", r.Name)
		}
	}
	return nil
}
