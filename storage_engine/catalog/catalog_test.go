package catalog

import (
	"DaemonIndex/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	cm, err := NewCatalogManager(dir)
	require.NoError(t, err)
	assert.Empty(t, cm.Definitions())

	byName := IndexDef{Name: "people.12", RelationName: "people", AttrByteOffset: 12, AttrType: types.STRING}
	byID := IndexDef{Name: "people.0", RelationName: "people", AttrByteOffset: 0, AttrType: types.INTEGER}
	require.NoError(t, cm.Register(byName))
	require.NoError(t, cm.Register(byID))
	require.NoError(t, cm.Register(byID))

	reloaded, err := NewCatalogManager(dir)
	require.NoError(t, err)
	assert.Equal(t, []IndexDef{byID, byName}, reloaded.Definitions())

	def, err := reloaded.Lookup("people.12")
	require.NoError(t, err)
	assert.Equal(t, types.STRING, def.AttrType)

	require.NoError(t, reloaded.Unregister("people.12"))
	_, err = reloaded.Lookup("people.12")
	assert.True(t, errors.Is(err, ErrIndexNotRegistered))
	assert.True(t, errors.Is(reloaded.Unregister("people.12"), ErrIndexNotRegistered))

	again, err := NewCatalogManager(dir)
	require.NoError(t, err)
	assert.Equal(t, []IndexDef{byID}, again.Definitions())
}

func TestCorruptCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metadata"), 0755))

	path := filepath.Join(dir, "metadata", catalogFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := NewCatalogManager(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"x.0","attr_type":9}]`), 0644))
	_, err = NewCatalogManager(dir)
	assert.Error(t, err)
}

func TestRegisterRequiresName(t *testing.T) {
	cm, err := NewCatalogManager(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, cm.Register(IndexDef{RelationName: "r"}))
}
