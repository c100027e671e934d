package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shelfd/shelfd/pkg/mapping"
	"github.com/shelfd/shelfd/pkg/store"
)

// CreateStore builds the identifier mapper and the resource store from
// configuration.
//
// The storage Type selects the implementation; its options map is decoded
// into the implementation-specific configuration struct. Only "filesystem"
// is supported: the store behind this server is the local filesystem, and
// multi-backend abstraction is deliberately out of scope.
func CreateStore(ctx context.Context, cfg *Config) (*mapping.Mapper, *store.FileStore, error) {
	switch cfg.Storage.Type {
	case "filesystem":
		return createFilesystemStore(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unknown storage type: %q", cfg.Storage.Type)
	}
}

// createFilesystemStore decodes the filesystem options and wires the mapper
// and store together.
func createFilesystemStore(ctx context.Context, cfg *Config) (*mapping.Mapper, *store.FileStore, error) {
	type FilesystemStorageConfig struct {
		RootPath string `mapstructure:"root_path"`
	}

	var storageCfg FilesystemStorageConfig
	if err := mapstructure.Decode(cfg.Storage.Filesystem, &storageCfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode filesystem storage config: %w", err)
	}

	if storageCfg.RootPath == "" {
		return nil, nil, fmt.Errorf("filesystem storage: root_path is required")
	}
	if !strings.HasSuffix(storageCfg.RootPath, "/") {
		storageCfg.RootPath += "/"
	}

	mapper, err := mapping.New(mapping.Config{
		BaseAddress: cfg.Mapping.BaseAddress,
		RootPath:    storageCfg.RootPath,
		PathSuffix:  cfg.Mapping.PathSuffix,
		URLSuffix:   cfg.Mapping.URLSuffix,
	}, mapping.SupportedTypes(cfg.Mapping.ContentTypes...))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create identifier mapper: %w", err)
	}

	fileStore, err := store.NewFileStore(ctx, mapper)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create filesystem store: %w", err)
	}

	return mapper, fileStore, nil
}
