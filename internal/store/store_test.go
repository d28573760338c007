package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("greeting", `"hello"`))

	value, ok, err := s.Get("greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"hello"`, value)

	// Overwrite replaces, not appends
	require.NoError(t, s.Set("greeting", `"goodbye"`))
	value, _, err = s.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, `"goodbye"`, value)
}

func TestStoreJSON(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, s.SetJSON("p", payload{Name: "dev", Count: 3}))

	var got payload
	ok, err := s.GetJSON("p", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "dev", Count: 3}, got)

	// Absent key leaves out untouched
	got = payload{Name: "untouched"}
	ok, err = s.GetJSON("absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "untouched", got.Name)
}

func TestStoreDelete(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Delete("k"))
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is fine
	require.NoError(t, s.Delete("k"))
}

func TestStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tabpilot.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	// Reopen and confirm persistence
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	value, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}
