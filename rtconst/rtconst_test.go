// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rtconst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixed_Equal(t *testing.T) {
	a := FixedFloat("gamma", 2.2)
	b := FixedFloat("gamma", 2.2)
	c := FixedFloat("gamma", 1.0)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewLookup("textures", "albedo", TypeUint, nil)))
}

func TestFixed_LoadData(t *testing.T) {
	data, err := FixedUint("count", 0x01020304).LoadData()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, data)

	data, err = FixedBool("flag", true).LoadData()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, data)
}

func TestRegistry_RoundTripFixed(t *testing.T) {
	c := FixedInt("mode", -3)
	d, err := Serialize(c)
	require.NoError(t, err)
	assert.Equal(t, KindFixed, d.Kind)

	got, ok := NewRegistry().Deserialize(d)
	require.True(t, ok)
	assert.True(t, c.Equal(got))
}

func TestRegistry_UnknownKind(t *testing.T) {
	got, ok := NewRegistry().Deserialize(Description{Kind: "material-slot", Data: []byte(`{}`)})
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRegistry_MalformedData(t *testing.T) {
	_, ok := NewRegistry().Deserialize(Description{Kind: KindFixed, Data: []byte(`{"type":`)})
	assert.False(t, ok)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterLookup(r, nil))
	assert.Error(t, RegisterLookup(r, nil))
}

func TestLookup_RebindsOnDeserialize(t *testing.T) {
	textures := map[string]uint32{"albedo": 7}
	fetch := func(source, key string) (uint32, error) {
		v, ok := textures[key]
		if !ok {
			return 0, errors.New("not uploaded")
		}
		return v, nil
	}

	original := NewLookup("textures", "albedo", TypeUint, nil)
	d, err := Serialize(original)
	require.NoError(t, err)

	r := NewRegistry()
	require.NoError(t, RegisterLookup(r, fetch))
	got, ok := r.Deserialize(d)
	require.True(t, ok)
	assert.True(t, original.Equal(got))

	data, err := got.LoadData()
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, data)

	_, err = original.LoadData()
	assert.Error(t, err, "unbound lookup cannot load")
}
