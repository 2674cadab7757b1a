// Package capability maps abstract capability names to the concrete
// resources that back them.
//
// A Config is a catalog of resources and capability links. Each link holds
// an access expression built in the catalog's own IR arena and the
// resources that expression reads. A Resolver answers capability queries
// during code generation and records every resource a capability
// transitively depends on as required, so a declaration is only emitted
// when some code actually reads it.
//
// Catalogs are built in code, loaded from YAML with LoadYAML and LoadFile,
// or taken from the presets VertexCatalog, FragmentCatalog and RayCatalog.
package capability
