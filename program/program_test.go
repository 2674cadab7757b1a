// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package program

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderlink/diag"
	"github.com/gogpu/shaderlink/resource"
	"github.com/gogpu/shaderlink/rtconst"
	"github.com/gogpu/shaderlink/stage"
)

type pushCall struct {
	layout PipelineLayout
	stages stage.Mask
	offset uint32
	data   []byte
}

type recorder struct {
	calls []pushCall
}

func (r *recorder) PushConstants(layout PipelineLayout, stages stage.Mask, offset uint32, data []byte) {
	r.calls = append(r.calls, pushCall{layout, stages, offset, data})
}

func testData() *Data {
	return &Data{
		Stages: map[stage.Stage]*StageData{
			stage.Vertex: {
				Bytecode: []byte{0x03, 0x02, 0x23, 0x07},
				Source:   "#version 460\n",
			},
			stage.Fragment: {
				Bytecode: []byte{0x03, 0x02, 0x23, 0x07, 0x01},
				SpecConstants: []resource.SpecConstant{
					{Index: 0, Name: "specConstant0", Constant: rtconst.FixedFloat("exposure", 1.5)},
				},
			},
		},
		PushConstants: []PushConstantRange{
			{UserID: 1, Name: "model", Offset: 0, Size: 64, Stages: stage.Vertex.Mask()},
			{UserID: 2, Name: "time", Offset: 64, Size: 4, Stages: stage.Vertex.Mask()},
			{UserID: 2, Name: "time", Offset: 0, Size: 4, Stages: stage.Fragment.Mask()},
		},
		StageRanges: map[stage.Stage]Range{
			stage.Vertex:   {Offset: 0, Size: 68},
			stage.Fragment: {Offset: 0, Size: 4},
		},
		DescriptorSets: []DescriptorSet{{Name: "camera", Index: 0}, {Name: "textures", Index: 1}},
	}
}

func TestData_Lookups(t *testing.T) {
	d := testData()
	assert.Equal(t, []stage.Stage{stage.Vertex, stage.Fragment}, d.StageList())

	idx, ok := d.DescriptorSetIndex("textures")
	require.True(t, ok)
	assert.Equal(t, uint32(1), idx)
	_, ok = d.DescriptorSetIndex("shadow")
	assert.False(t, ok)

	pc, ok := d.PushConstant(stage.Vertex, 2)
	require.True(t, ok)
	assert.Equal(t, uint32(68), pc.End())
	pc, ok = d.PushConstant(stage.Fragment, 2)
	require.True(t, ok)
	assert.Equal(t, uint32(4), pc.End())
	_, ok = d.PushConstant(stage.Fragment, 1)
	assert.False(t, ok)

	assert.Len(t, d.PushConstantRanges(2), 2)
	assert.Empty(t, d.PushConstantRanges(7))
}

func TestRuntime_PushConstants(t *testing.T) {
	rt := NewRuntime(testData())
	var rec recorder

	require.NoError(t, rt.PushConstants(&rec, 7, 2, []byte{1, 2, 3, 4}))
	require.Len(t, rec.calls, 2)
	assert.Equal(t, pushCall{7, stage.Vertex.Mask(), 64, []byte{1, 2, 3, 4}}, rec.calls[0])
	assert.Equal(t, pushCall{7, stage.Fragment.Mask(), 0, []byte{1, 2, 3, 4}}, rec.calls[1])

	err := rt.PushConstants(&rec, 7, 9, []byte{0})
	assert.True(t, errors.Is(err, diag.ErrUnknownPushConstant))

	err = rt.PushConstants(&rec, 7, 2, make([]byte, 8))
	assert.True(t, errors.Is(err, diag.ErrTypeMismatch))
	assert.Len(t, rec.calls, 2)
	assert.Len(t, rt.PushConstantRanges(2), 2)

	assert.True(t, rt.HasPushConstant(1))
	assert.False(t, rt.HasPushConstant(3))
}

func TestRuntime_Defaults(t *testing.T) {
	rt := NewRuntime(testData())
	require.NoError(t, rt.SetPushConstantDefaultValue(2, []byte{0, 0, 128, 63}))
	require.NoError(t, rt.SetPushConstantDefaultValue(1, make([]byte, 64)))
	assert.True(t, errors.Is(rt.SetPushConstantDefaultValue(5, nil), diag.ErrUnknownPushConstant))

	clone := rt.Clone()
	require.NoError(t, clone.SetPushConstantDefaultValue(2, []byte{0, 0, 0, 64}))

	var rec recorder
	rt.UploadPushConstantDefaultValues(&rec, 1)
	require.Len(t, rec.calls, 3)
	assert.Equal(t, uint32(0), rec.calls[0].offset)
	assert.Equal(t, []byte{0, 0, 128, 63}, rec.calls[1].data)
	assert.Equal(t, uint32(64), rec.calls[1].offset)
	assert.Equal(t, uint32(0), rec.calls[2].offset)

	rec.calls = nil
	clone.UploadPushConstantDefaultValues(&rec, 1)
	require.Len(t, rec.calls, 3)
	assert.Equal(t, []byte{0, 0, 0, 64}, rec.calls[1].data)
	assert.Equal(t, []byte{0, 0, 0, 64}, rec.calls[2].data)

	idx, ok := clone.DescriptorSetIndex("camera")
	assert.True(t, ok)
	assert.Equal(t, uint32(0), idx)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	d := testData()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d))

	got, err := Decode(&buf, rtconst.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, d.PushConstants, got.PushConstants)
	assert.Equal(t, d.DescriptorSets, got.DescriptorSets)
	assert.Equal(t, d.StageRanges, got.StageRanges)
	assert.Equal(t, d.Stages[stage.Vertex].Bytecode, got.Stages[stage.Vertex].Bytecode)
	require.Len(t, got.Stages[stage.Fragment].SpecConstants, 1)
	assert.True(t, got.Stages[stage.Fragment].SpecConstants[0].Constant.Equal(rtconst.FixedFloat("exposure", 1.5)))

	before, after := NewRuntime(d), NewRuntime(got)
	for _, id := range []uint32{0, 1, 2, 3} {
		assert.Equal(t, before.HasPushConstant(id), after.HasPushConstant(id))
	}
	for _, name := range []string{"camera", "textures", "shadow"} {
		i1, ok1 := before.DescriptorSetIndex(name)
		i2, ok2 := after.DescriptorSetIndex(name)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, i1, i2)
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"format": 1,`},
		{"format", `{"format": 2, "stages": {}}`},
		{"unknownKind", `{"format": 1, "stages": {"fragment": {"bytecode": "",
			"specConstants": [{"index": 0, "name": "specConstant0", "constant": {"kind": "texture-index", "data": {}}}]}}}`},
		{"duplicateUserID", `{"format": 1, "stages": {}, "pushConstants": [
			{"userId": 1, "name": "a", "offset": 0, "size": 4, "stages": 1},
			{"userId": 1, "name": "b", "offset": 4, "size": 4, "stages": 1}]}`},
		{"gap", `{"format": 1, "stages": {}, "descriptorSets": [{"name": "camera", "index": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewBufferString(tt.input), rtconst.NewRegistry())
			assert.True(t, errors.Is(err, diag.ErrDeserializationFailure), "%v", err)
		})
	}
}

func TestDecode_NilDeserializer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testData()))
	_, err := Decode(&buf, nil)
	assert.True(t, errors.Is(err, diag.ErrDeserializationFailure))

	buf.Reset()
	d := testData()
	d.Stages[stage.Fragment].SpecConstants = nil
	require.NoError(t, Encode(&buf, d))
	got, err := Decode(&buf, nil)
	require.NoError(t, err)
	assert.Len(t, got.Stages, 2)
}

func TestDecode_SameUserIDInSeveralStages(t *testing.T) {
	input := `{"format": 1, "stages": {}, "pushConstants": [
		{"userId": 2, "name": "time", "offset": 64, "size": 4, "stages": 1},
		{"userId": 2, "name": "time", "offset": 0, "size": 4, "stages": 16}]}`
	d, err := Decode(bytes.NewBufferString(input), nil)
	require.NoError(t, err)
	assert.Len(t, d.PushConstantRanges(2), 2)
}
