package capability

import (
	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/resource"
	"github.com/gogpu/shaderlink/rtconst"
)

// Resolver is the default resource resolver, backed by a catalog. Every
// capability query marks the resources the capability depends on as
// required in the module's interface builder.
type Resolver struct {
	config *Config
	iface  *resource.InterfaceBuilder
}

// NewResolver creates a resolver recording requirements into iface.
func NewResolver(config *Config, iface *resource.InterfaceBuilder) *Resolver {
	return &Resolver{config: config, iface: iface}
}

// QueryCapability requires every resource the named capability transitively
// depends on and returns its access expression.
func (r *Resolver) QueryCapability(name string) (ir.Ref, error) {
	capability := New(name)
	ref, _, ok := r.config.Lookup(capability)
	if !ok {
		return ir.Ref{}, diag.New(diag.UnresolvedResource, "unknown capability %s", name).WithResource(name)
	}

	visited := make(map[Capability]bool)
	var require func(Capability) error
	require = func(c Capability) error {
		if visited[c] {
			return nil
		}
		visited[c] = true
		l, ok := r.config.links[c]
		if !ok {
			return diag.New(diag.UnresolvedResource, "capability %s depends on unknown capability %s", name, c).WithResource(c.key)
		}
		for _, id := range l.resources {
			entry, _ := r.config.Resource(id)
			r.iface.Require(id, entry)
		}
		for _, dep := range l.depends {
			if err := require(dep); err != nil {
				return err
			}
		}
		return nil
	}
	if err := require(capability); err != nil {
		return ir.Ref{}, err
	}
	return ref, nil
}

// QueryRuntimeConstant registers c as a specialization constant and returns
// the identifier it is declared under.
func (r *Resolver) QueryRuntimeConstant(c rtconst.Constant) (string, error) {
	if c == nil {
		return "", diag.New(diag.UnresolvedResource, "nil runtime constant")
	}
	_, name := r.iface.AddSpecializationConstant(c)
	return name, nil
}
