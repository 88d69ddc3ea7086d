// obsstore - embedded observation time-series storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/obsstore

package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/obsstore/internal/registry"
	"github.com/tomtom215/obsstore/internal/testsupport"
)

func TestGetOrCreateStreamIsIdempotent(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)

	structure := registry.RecordStructure{Fields: []registry.FieldDescriptor{
		{Name: "temperature", Kind: registry.FieldScalar, Unit: "Cel"},
	}}

	id1, err := reg.GetOrCreateStream("urn:s:a", "temp", 1_700_000_000_000, structure, "json")
	require.NoError(t, err)

	id2, err := reg.GetOrCreateStream("urn:s:a", "temp", 1_700_000_000_000, structure, "json")
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "identical re-registration must return the same streamId")
}

func TestSequentialIDsIncreaseFromOne(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)

	id1, err := reg.GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id1)

	id2, err := reg.GetOrCreateStream("urn:s:a", "pressure", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2)
}

func TestUIDHashIsDeterministic(t *testing.T) {
	eng1 := testsupport.NewEngine(t)
	eng2 := testsupport.NewEngine(t)
	reg1 := registry.New(eng1, registry.UIDHash)
	reg2 := registry.New(eng2, registry.UIDHash)

	id1, err := reg1.GetOrCreateStream("urn:s:a", "temp", 1_700_000_000_000, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	id2, err := reg2.GetOrCreateStream("urn:s:a", "temp", 1_700_000_000_000, registry.RecordStructure{}, "json")
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "UIDHash must assign the same id for the same identity tuple across stores")
}

func TestLookupResolvesRegisteredStream(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)

	want, err := reg.GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)

	got, err := reg.Lookup("urn:s:a", "temp", 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRetireTransitionsLifecycleState(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)

	id, err := reg.GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)

	writable, err := reg.IsWritable(id)
	require.NoError(t, err)
	assert.True(t, writable)

	require.NoError(t, reg.Retire(id, 2))

	writable, err = reg.IsWritable(id)
	require.NoError(t, err)
	assert.False(t, writable)

	info, err := reg.Get(id)
	require.NoError(t, err)
	assert.Equal(t, registry.StateRetired, info.State)
	require.NotNil(t, info.ValidTimeEnd)
}

func TestListReturnsAllRegisteredStreams(t *testing.T) {
	eng := testsupport.NewEngine(t)
	reg := registry.New(eng, registry.Sequential)

	_, err := reg.GetOrCreateStream("urn:s:a", "temp", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)
	_, err = reg.GetOrCreateStream("urn:s:a", "pressure", 1, registry.RecordStructure{}, "json")
	require.NoError(t, err)

	streams, err := reg.List()
	require.NoError(t, err)
	assert.Len(t, streams, 2)
}
