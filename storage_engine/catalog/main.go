package catalog

import (
	"DaemonIndex/logger"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

/*
This file is the main access of Catalog Manager
Catalog manager keeps the definitions of the indexes that live under one data
directory and persists them in metadata/index_catalog.json, so a restarted
process can reopen every index without knowing which relations were indexed.
*/

var ErrIndexNotRegistered = errors.New("index not registered")

const catalogFile = "index_catalog.json"

// NewCatalogManager loads the catalog of dataDir. A missing catalog file
// yields an empty catalog.
func NewCatalogManager(dataDir string) (*CatalogManager, error) {
	cm := &CatalogManager{
		dataDir: dataDir,
		indexes: make(map[string]IndexDef),
	}
	if err := cm.load(); err != nil {
		return nil, err
	}
	return cm, nil
}

// Register records def, replacing an earlier definition with the same name.
func (cm *CatalogManager) Register(def IndexDef) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if def.Name == "" {
		return errors.New("Register: index name is required")
	}
	if old, ok := cm.indexes[def.Name]; ok && old == def {
		return nil
	}
	cm.indexes[def.Name] = def
	return cm.persist()
}

func (cm *CatalogManager) Unregister(name string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, ok := cm.indexes[name]; !ok {
		return errors.Wrapf(ErrIndexNotRegistered, "Unregister %s", name)
	}
	delete(cm.indexes, name)
	return cm.persist()
}

func (cm *CatalogManager) Lookup(name string) (IndexDef, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	def, ok := cm.indexes[name]
	if !ok {
		return IndexDef{}, errors.Wrapf(ErrIndexNotRegistered, "Lookup %s", name)
	}
	return def, nil
}

// Definitions returns every registered index in name order.
func (cm *CatalogManager) Definitions() []IndexDef {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	defs := make([]IndexDef, 0, len(cm.indexes))
	for _, def := range cm.indexes {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (cm *CatalogManager) path() string {
	return filepath.Join(cm.dataDir, "metadata", catalogFile)
}

func (cm *CatalogManager) load() error {
	data, err := os.ReadFile(cm.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read index catalog")
	}

	var defs []IndexDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return errors.Wrapf(err, "failed to parse %s", cm.path())
	}
	for _, def := range defs {
		if !def.AttrType.Valid() {
			return errors.Errorf("index catalog: %s has invalid type %d", def.Name, int32(def.AttrType))
		}
		cm.indexes[def.Name] = def
	}
	logger.Debugf("[Catalog] loaded %d index definitions from %s", len(defs), cm.path())
	return nil
}

// persist rewrites the catalog file through a temp file and rename. Callers
// hold cm.mu.
func (cm *CatalogManager) persist() error {
	metaDir := filepath.Dir(cm.path())
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create metadata directory")
	}

	defs := make([]IndexDef, 0, len(cm.indexes))
	for _, def := range cm.indexes {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	data, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return err
	}
	tmp := cm.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write index catalog")
	}
	return errors.Wrap(os.Rename(tmp, cm.path()), "failed to replace index catalog")
}
