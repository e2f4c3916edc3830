package cli

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/emit"
	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/typesys"
	"github.com/toyz/typeshape/internal/utils"
)

// GenerationSummary contains statistics about one generation run
type GenerationSummary struct {
	ModelFiles          int
	OperationsProcessed int
	TypesEmitted        int
	SchemasWritten      int
	ImportPath          string
	GeneratedFiles      []string
	Duration            time.Duration
}

// Generator coordinates the CLI generation process
type Generator struct {
	moduleResolver *ModuleResolver
	registry       *annotations.Registry
	diagnostics    *utils.DiagnosticSystem
	summary        GenerationSummary
}

// NewGenerator creates a generator using the default attribute registry
func NewGenerator(diagnostics *utils.DiagnosticSystem) *Generator {
	return NewGeneratorWithRegistry(diagnostics, annotations.Default())
}

// NewGeneratorWithRegistry creates a generator resolving attr tags against registry
func NewGeneratorWithRegistry(diagnostics *utils.DiagnosticSystem, registry *annotations.Registry) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewSilentDiagnostics()
	}
	return &Generator{
		moduleResolver: NewModuleResolver(),
		registry:       registry,
		diagnostics:    diagnostics,
		summary:        GenerationSummary{GeneratedFiles: make([]string, 0)},
	}
}

// GetSummary returns the generation summary
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Run loads the model, builds a parameter type per selected operation and writes
// the Go source and, when configured, the JSON schemas
func (g *Generator) Run(cfg *Config) error {
	startTime := time.Now()
	g.summary = GenerationSummary{GeneratedFiles: make([]string, 0)}

	g.diagnostics.Verbose("Starting code generation at %s", startTime.Format("15:04:05"))
	g.diagnostics.Debug("Model files: %v", cfg.ModelFiles)

	model, err := edm.LoadFiles(cfg.ModelFiles...)
	if err != nil {
		g.diagnostics.Error("Failed to load model: %v", err)
		return err
	}
	g.summary.ModelFiles = len(cfg.ModelFiles)

	operations, err := selectOperations(model, cfg.Operations)
	if err != nil {
		return err
	}
	g.diagnostics.Info("Found %d operation(s) to process", len(operations))

	builder, ctx, err := g.buildContext(model)
	if err != nil {
		return err
	}

	var failures *errors.MultipleErrors
	parameterTypes := make(map[string]bool)
	for _, op := range operations {
		if _, err := builder.NewActionParameters(ctx, op); err != nil {
			g.diagnostics.Error("%s: %v", op.FullName(), err)
			errors.AddToMultiple(&failures, asTypeshapeError(err))
			continue
		}
		name := emit.ParametersTypeName(op)
		parameterTypes[name] = true
		g.summary.OperationsProcessed++
		g.diagnostics.List("%s -> %s", op.FullName(), name)
	}
	if err := failures.ErrOrNil(); err != nil {
		return err
	}

	declarations := builder.Runtime().Declarations()
	g.summary.TypesEmitted = len(declarations)

	source := emit.NewSource(cfg.PackageName)
	source.Declare(declarations...)
	file, err := source.Write(cfg.OutputDir)
	if err != nil {
		g.diagnostics.Error("Failed to write source: %v", err)
		return err
	}
	g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, file.FilePath)

	if cfg.SchemaDir != "" {
		if err := g.writeSchemas(cfg.SchemaDir, declarations, parameterTypes); err != nil {
			return err
		}
	}

	g.summary.ImportPath = g.resolveImportPath(cfg)
	g.summary.Duration = time.Since(startTime)
	return nil
}

func (g *Generator) buildContext(model *edm.Model) (*emit.ModelTypeBuilder, *typesys.Context, error) {
	builder, err := emit.NewModelTypeBuilder(
		emit.WithParser(annotations.NewParser(g.registry)),
		emit.WithDiagnostics(g.diagnostics),
	)
	if err != nil {
		return nil, nil, err
	}

	ctx, err := emit.NewModelContext(model, g.registry, builder)
	if err != nil {
		return nil, nil, err
	}
	return builder, ctx, nil
}

// writeSchemas writes one schema per operation parameter type
func (g *Generator) writeSchemas(dir string, declarations []emit.Declaration, parameterTypes map[string]bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapFileSystemError("create directory", dir, err)
	}

	schema := emit.NewSchema()
	for _, d := range declarations {
		if !parameterTypes[d.Name] {
			continue
		}
		data, err := schema.Marshal(d.Name, d.Type)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, d.Name+SchemaFileSuffix)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return errors.WrapFileSystemError("write", path, err)
		}
		g.summary.SchemasWritten++
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, path)
	}
	return nil
}

// resolveImportPath reports where the generated package lives; failure only warns
func (g *Generator) resolveImportPath(cfg *Config) string {
	moduleName, moduleRoot, err := g.moduleResolver.ResolveModule(cfg.ModuleName, cfg.OutputDir)
	if err != nil {
		g.diagnostics.Warn("Could not resolve module: %v", err)
		return ""
	}
	importPath, err := g.moduleResolver.BuildPackagePath(moduleName, moduleRoot, cfg.OutputDir)
	if err != nil {
		g.diagnostics.Warn("Could not build import path: %v", err)
		return ""
	}
	g.diagnostics.Debug("Resolved import path: %s", importPath)
	return importPath
}

func selectOperations(model *edm.Model, names []string) ([]*edm.Operation, error) {
	if len(names) == 0 {
		return model.Operations(), nil
	}

	operations := make([]*edm.Operation, 0, len(names))
	for _, name := range names {
		op, ok := model.FindOperation(name)
		if !ok {
			available := make([]string, 0)
			for _, o := range model.Operations() {
				available = append(available, o.FullName())
			}
			return nil, errors.ConfigurationError("operation", "unknown operation '"+name+"'").
				WithSuggestion("Available operations: " + strings.Join(available, ", "))
		}
		operations = append(operations, op)
	}
	return operations, nil
}

func asTypeshapeError(err error) errors.TypeshapeError {
	var typed errors.TypeshapeError
	if stderrors.As(err, &typed) {
		return typed
	}
	return errors.Wrap(errors.UnknownErrorCode, "generation failed", err)
}
