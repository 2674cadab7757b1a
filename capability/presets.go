package capability

import (
	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/resource"
)

// Capabilities provided by the preset catalogs.
var (
	CameraPosition       = New("camera.position")
	CameraViewProjection = New("camera.viewProjection")
	ModelMatrix          = New("model.matrix")
	Time                 = New("frame.time")
	TextureTable         = New("textures")
	VertexPosition       = New("vertex.position")
	VertexNormal         = New("vertex.normal")
	VertexUV             = New("vertex.uv")
	WorldPosition        = New("world.position")
	RayPayload           = New("ray.payload")
	HitAttributes        = New("hit.attributes")
	SceneTLAS            = New("scene.tlas")
)

// Push-constant user IDs used by the preset catalogs.
const (
	ModelMatrixUserID uint32 = 1
	TimeUserID        uint32 = 2
)

// presetBuilder populates a catalog, keeping the first error.
type presetBuilder struct {
	cfg *Config
	err error
}

func (p *presetBuilder) add(res resource.Resource, reqs resource.Requirements) resource.ID {
	if p.err != nil {
		return 0
	}
	id, err := p.cfg.AddResource(res, reqs)
	p.err = err
	return id
}

func (p *presetBuilder) link(c Capability, value ir.ValueHandle, ids ...resource.ID) {
	if p.err == nil {
		p.err = p.cfg.Link(c, value, ids...)
	}
}

func (p *presetBuilder) linkResource(c Capability, id resource.ID) {
	if p.err == nil {
		p.err = p.cfg.LinkResource(c, id)
	}
}

func (p *presetBuilder) done() *Config {
	if p.err != nil {
		panic("capability: invalid preset catalog: " + p.err.Error())
	}
	return p.cfg
}

// common registers the camera, model, time and texture table resources
// shared by every preset.
func (p *presetBuilder) common() {
	b := p.cfg.Builder()

	camera := p.add(resource.DescriptorBinding{
		Set:    "camera",
		Layout: "std140",
		Type:   "uniform CameraBlock { mat4 viewProj; vec3 position; }",
		Name:   "camera",
	}, resource.Requirements{})
	p.link(CameraPosition, b.MemberTyped(p.cfg.Access(camera), "position", b.Vector(ir.Vec3, ir.F32)), camera)
	p.link(CameraViewProjection, b.MemberTyped(p.cfg.Access(camera), "viewProj", b.Matrix(ir.Vec4, ir.Vec4)), camera)

	textures := p.add(resource.DescriptorBinding{
		Set:    "textures",
		Type:   "uniform sampler2D",
		Name:   "textures",
		Suffix: "[]",
	}, resource.Requirements{Extensions: []string{"GL_EXT_nonuniform_qualifier"}})
	p.linkResource(TextureTable, textures)

	model := p.add(resource.PushConstant{Name: "model", Type: "mat4", UserID: ModelMatrixUserID}, resource.Requirements{})
	p.linkResource(ModelMatrix, model)
	time := p.add(resource.PushConstant{Name: "time", Type: "float", UserID: TimeUserID}, resource.Requirements{})
	p.linkResource(Time, time)
}

// VertexCatalog returns a catalog for vertex stages reading mesh
// attributes from vertex inputs.
func VertexCatalog() *Config {
	p := &presetBuilder{cfg: NewConfig()}
	p.common()
	b := p.cfg.Builder()

	position := p.add(resource.ShaderInput{Name: "inPosition", Type: "vec3", Location: 0}, resource.Requirements{})
	normal := p.add(resource.ShaderInput{Name: "inNormal", Type: "vec3", Location: 1}, resource.Requirements{})
	uv := p.add(resource.ShaderInput{Name: "inUV", Type: "vec2", Location: 2}, resource.Requirements{})
	p.linkResource(VertexPosition, position)
	p.linkResource(VertexNormal, normal)
	p.linkResource(VertexUV, uv)

	if p.err == nil {
		modelRef, _, _ := p.cfg.Lookup(ModelMatrix)
		vec4 := b.Vector(ir.Vec4, ir.F32)
		homogeneous, err := b.Compose(vec4, p.cfg.Access(position), b.Float(1))
		p.err = err
		if err == nil {
			world := b.Member(b.Mul(modelRef.Value, homogeneous), "xyz")
			p.link(WorldPosition, world, position)
			p.err = p.cfg.Depend(WorldPosition, ModelMatrix)
		}
	}
	return p.done()
}

// FragmentCatalog returns a catalog for fragment stages reading mesh
// attributes interpolated from the vertex stage.
func FragmentCatalog() *Config {
	p := &presetBuilder{cfg: NewConfig()}
	p.common()

	normal := p.add(resource.ShaderInput{Name: "fragNormal", Type: "vec3", Location: 0}, resource.Requirements{})
	uv := p.add(resource.ShaderInput{Name: "fragUV", Type: "vec2", Location: 1}, resource.Requirements{})
	world := p.add(resource.ShaderInput{Name: "fragWorldPosition", Type: "vec3", Location: 2}, resource.Requirements{})
	p.linkResource(VertexNormal, normal)
	p.linkResource(VertexUV, uv)
	p.linkResource(WorldPosition, world)
	return p.done()
}

// RayCatalog returns a catalog for ray-tracing stages.
func RayCatalog() *Config {
	p := &presetBuilder{cfg: NewConfig()}
	p.common()

	rt := resource.Requirements{Extensions: []string{"GL_EXT_ray_tracing"}}
	payload := p.add(resource.RayPayload{Name: "payload", Type: "vec4", Incoming: true}, rt)
	attribs := p.add(resource.HitAttribute{Name: "attribs", Type: "vec2"}, rt)
	tlas := p.add(resource.DescriptorBinding{
		Set:  "scene",
		Type: "uniform accelerationStructureEXT",
		Name: "tlas",
	}, rt)
	p.linkResource(RayPayload, payload)
	p.linkResource(HitAttributes, attribs)
	p.linkResource(SceneTLAS, tlas)
	return p.done()
}
