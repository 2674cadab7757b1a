package capability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderlink/ir"
	"github.com/gogpu/shaderlink/resource"
)

const catalogYAML = `
resources:
  - name: camera
    kind: descriptor
    set: camera
    binding: 0
    layout: std140
    type: "uniform CameraBlock { mat4 viewProj; vec3 position; }"
  - name: model
    kind: push_constant
    type: mat4
    user_id: 1
  - name: inUV
    kind: input
    type: vec2
    location: 2
    extensions: [GL_EXT_scalar_block_layout]
capabilities:
  - name: camera.position
    resource: camera
    member: position
    type: vec3
  - name: model.matrix
    resource: model
  - name: vertex.uv
    resource: inUV
    depends: [model.matrix]
`

func TestLoadYAML(t *testing.T) {
	cfg, err := LoadYAML(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, []Capability{New("camera.position"), New("model.matrix"), New("vertex.uv")}, cfg.Capabilities())

	ref, ids, ok := cfg.Lookup(New("camera.position"))
	require.True(t, ok)
	require.Len(t, ids, 1)
	b := cfg.Builder()
	assert.Equal(t, b.Vector(ir.Vec3, ir.F32), b.TypeOf(ref.Value))

	id, ok := cfg.ResourceID("inUV")
	require.True(t, ok)
	entry, ok := cfg.Resource(id)
	require.True(t, ok)
	assert.Equal(t, resource.ShaderInput{Name: "inUV", Type: "vec2", Location: 2}, entry.Resource)
	assert.Equal(t, []string{"GL_EXT_scalar_block_layout"}, entry.Requirements.Extensions)

	iface := resource.NewInterfaceBuilder()
	_, err = NewResolver(cfg, iface).QueryCapability("vertex.uv")
	require.NoError(t, err)
	model, _ := cfg.ResourceID("model")
	assert.True(t, iface.Required(model))
}

func TestLoadYAML_ReportsAllProblems(t *testing.T) {
	const bad = `
resources:
  - name: a
    kind: bogus
  - name: b
    kind: push_constant
    type: NotAType
capabilities:
  - name: x
    resource: missing
  - name: y
    resource: b
    member: field
    type: vec9
`
	_, err := LoadYAML(strings.NewReader(bad))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "unknown kind")
	assert.Contains(t, msg, `unknown resource "missing"`)
	assert.Contains(t, msg, `unknown type "vec9"`)
}

func TestLoadYAML_UnknownField(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("resources:\n  - name: a\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Capabilities(), 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
