package conf

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

/*
Example configuration:

	[storage]
	data_dir          = data
	buffer_pool_pages = 64
	page_cache_bytes  = 4194304

	[index]
	leaf_capacity     = 0
	internal_capacity = 0

	[logs]
	log_level = info
	log_path  =
*/
type Cfg struct {
	Raw *ini.File

	// storage
	DataDir         string
	BufferPoolPages int
	PageCacheBytes  int64

	// index, 0 means derive from the page size
	LeafCapacity     int
	InternalCapacity int

	// logs
	LogLevel string
	LogPath  string
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:             ini.Empty(),
		DataDir:         "data",
		BufferPoolPages: 64,
		PageCacheBytes:  4 << 20,
		LogLevel:        "info",
	}
}

// Load overlays the ini file at path onto the current values. Keys that are
// absent keep their defaults.
func (cfg *Cfg) Load(path string) (*Cfg, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	cfg.Raw = iniFile

	if err := cfg.parseStorageCfg(cfg.Raw.Section("storage")); err != nil {
		return nil, err
	}
	if err := cfg.parseIndexCfg(cfg.Raw.Section("index")); err != nil {
		return nil, err
	}
	cfg.parseLogsCfg(cfg.Raw.Section("logs"))
	return cfg, nil
}

func (cfg *Cfg) parseStorageCfg(section *ini.Section) error {
	cfg.DataDir = section.Key("data_dir").MustString(cfg.DataDir)
	cfg.BufferPoolPages = section.Key("buffer_pool_pages").MustInt(cfg.BufferPoolPages)
	cfg.PageCacheBytes = section.Key("page_cache_bytes").MustInt64(cfg.PageCacheBytes)

	if cfg.BufferPoolPages < 4 {
		return errors.Errorf("storage.buffer_pool_pages must be at least 4, got %d", cfg.BufferPoolPages)
	}
	if cfg.PageCacheBytes < 0 {
		return errors.Errorf("storage.page_cache_bytes must not be negative, got %d", cfg.PageCacheBytes)
	}
	return nil
}

func (cfg *Cfg) parseIndexCfg(section *ini.Section) error {
	cfg.LeafCapacity = section.Key("leaf_capacity").MustInt(cfg.LeafCapacity)
	cfg.InternalCapacity = section.Key("internal_capacity").MustInt(cfg.InternalCapacity)

	if cfg.LeafCapacity != 0 && cfg.LeafCapacity < 2 {
		return errors.Errorf("index.leaf_capacity must be 0 or at least 2, got %d", cfg.LeafCapacity)
	}
	if cfg.InternalCapacity != 0 && cfg.InternalCapacity < 2 {
		return errors.Errorf("index.internal_capacity must be 0 or at least 2, got %d", cfg.InternalCapacity)
	}
	return nil
}

func (cfg *Cfg) parseLogsCfg(section *ini.Section) {
	cfg.LogLevel = section.Key("log_level").MustString(cfg.LogLevel)
	cfg.LogPath = section.Key("log_path").MustString(cfg.LogPath)
}
