package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/typeshape/internal/emit"
	"github.com/toyz/typeshape/internal/errors"
)

// SchemaFileSuffix is appended to a type name to name its schema file
const SchemaFileSuffix = ".schema.json"

// Cleaner handles cleaning up generated files
type Cleaner struct{}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// CleanGeneratedFiles removes the generated source from the output directory and
// every schema file from the schema directory, returning the removed paths
func (c *Cleaner) CleanGeneratedFiles(cfg *Config) ([]string, error) {
	var removed []string

	if err := c.removeFile(filepath.Join(cfg.OutputDir, emit.GeneratedFileName), &removed); err != nil {
		return removed, err
	}

	if cfg.SchemaDir == "" {
		return removed, nil
	}
	entries, err := os.ReadDir(cfg.SchemaDir)
	if err != nil {
		if os.IsNotExist(err) {
			return removed, nil
		}
		return removed, errors.WrapFileSystemError("read directory", cfg.SchemaDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), SchemaFileSuffix) {
			continue
		}
		if err := c.removeFile(filepath.Join(cfg.SchemaDir, entry.Name()), &removed); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func (c *Cleaner) removeFile(path string, removed *[]string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapFileSystemError("remove", path, err)
	}
	*removed = append(*removed, path)
	return nil
}
