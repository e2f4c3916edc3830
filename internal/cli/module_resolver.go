package cli

import (
	"path/filepath"

	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/utils"
)

// ModuleResolver handles resolving Go module information
type ModuleResolver struct{}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// ResolveModule returns the module path and module root for dir. A custom module
// name takes precedence over the go.mod declaration; the root still comes from the
// nearest go.mod, or dir itself when there is none.
func (r *ModuleResolver) ResolveModule(customModule, dir string) (string, string, error) {
	goMod, findErr := utils.FindGoModFile(dir)

	if customModule != "" {
		if findErr != nil {
			return customModule, dir, nil
		}
		return customModule, filepath.Dir(goMod), nil
	}

	if findErr != nil {
		return "", "", errors.WrapConfigurationError("module", "resolve", findErr).
			WithSuggestion("Run inside a Go module or pass -module")
	}
	name, err := utils.ParseModuleName(goMod)
	if err != nil {
		return "", "", errors.WrapConfigurationError("module", "parse", err).WithContext("path", goMod)
	}
	return name, filepath.Dir(goMod), nil
}

// BuildPackagePath builds the full import path for a package directory
func (r *ModuleResolver) BuildPackagePath(moduleName, moduleRoot, packageDir string) (string, error) {
	path, err := utils.PackageImportPath(moduleName, moduleRoot, packageDir)
	if err != nil {
		return "", errors.WrapConfigurationError("module", "build package path", err)
	}
	return path, nil
}
