package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/toyz/typeshape/internal/cli"
	"github.com/toyz/typeshape/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(fs *flag.FlagSet, w io.Writer) func() {
	name := fs.Name()
	return func() {
		fmt.Fprintf(w, "Usage: %s [options] [model-files...]\n\n", name)
		fmt.Fprintf(w, "Typeshape Parameter Type Generator\n")
		fmt.Fprintf(w, "Reads a YAML operation model and generates one Go struct per operation holding its parameters.\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nEnvironment:\n")
		fmt.Fprintf(w, "  %s, %s, %s, %s, %s, %s and %s\n", cli.EnvModel, cli.EnvOperations, cli.EnvOutput,
			cli.EnvPackage, cli.EnvSchemaDir, cli.EnvModule, cli.EnvVerbose)
		fmt.Fprintf(w, "  provide defaults for the flags. They may also be set in %s (or the file named by %s).\n", cli.DefaultEnvFile, cli.EnvFile)
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s -model shop.yaml                              # Generate every operation into ./gen\n", name)
		fmt.Fprintf(w, "  %s -model shop.yaml -operation Publish           # Generate a single operation\n", name)
		fmt.Fprintf(w, "  %s -out internal/params -schema api shop.yaml    # Also write JSON schemas\n", name)
		fmt.Fprintf(w, "  %s -watch -model shop.yaml                       # Regenerate on every model change\n", name)
		fmt.Fprintf(w, "  %s -clean -out internal/params -schema api       # Delete generated files\n", name)
	}
}

// run executes the generator with args and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("typeshape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, stderr)

	cfg, err := cli.LoadConfig(fs, args)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fs.Usage()
		return 1
	}

	// Create diagnostic system based on flags
	var diagnostics *utils.DiagnosticSystem
	if cfg.Quiet {
		diagnostics = utils.NewQuietDiagnostics()
	} else if cfg.Verbose {
		diagnostics = utils.NewVerboseDiagnostics()
	} else {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	if stdout != os.Stdout || stderr != os.Stderr {
		diagnostics = diagnostics.WithWriters(stdout, stderr)
	}

	diagnostics.Section("Typeshape Generator")

	if cfg.Clean {
		diagnostics.Info("Starting cleanup operation...")
		removed, err := cli.NewCleaner().CleanGeneratedFiles(cfg)
		if err != nil {
			diagnostics.Error("Clean operation failed: %v", err)
			return 1
		}
		for _, file := range removed {
			diagnostics.List("%s", file)
		}
		diagnostics.Success("Removed %d generated file(s)", len(removed))
		return 0
	}

	if cfg.Verbose {
		diagnostics.Section("Configuration")
		diagnostics.List("Model files: %s", strings.Join(cfg.ModelFiles, ", "))
		if len(cfg.Operations) > 0 {
			diagnostics.List("Operations: %s", strings.Join(cfg.Operations, ", "))
		}
		diagnostics.List("Output: %s (package %s)", cfg.OutputDir, cfg.PackageName)
		if cfg.SchemaDir != "" {
			diagnostics.List("Schemas: %s", cfg.SchemaDir)
		}
		if cfg.ModuleName != "" {
			diagnostics.List("Custom module: %s", cfg.ModuleName)
		}
	}

	diagnostics.Section("Code Generation")
	generator := cli.NewGenerator(diagnostics)
	if err := generator.Run(cfg); err != nil {
		diagnostics.Error("Generation failed: %v", err)
		return 1
	}

	summary := generator.GetSummary()
	stats := map[string]interface{}{
		"Model files":          summary.ModelFiles,
		"Operations processed": summary.OperationsProcessed,
		"Types emitted":        summary.TypesEmitted,
		"Schemas written":      summary.SchemasWritten,
		"Duration":             summary.Duration.Round(time.Millisecond).String(),
	}
	diagnostics.Summary("Generation Complete!", stats)

	if cfg.Verbose && len(summary.GeneratedFiles) > 0 {
		diagnostics.Section("Generated Files")
		for _, file := range summary.GeneratedFiles {
			diagnostics.List("%s", file)
		}
	}

	if summary.ImportPath != "" {
		diagnostics.Success("Import the generated types from %s", summary.ImportPath)
	} else {
		diagnostics.Success("Generated types written to %s", cfg.OutputDir)
	}

	if cfg.Watch {
		return watch(cfg, generator, diagnostics)
	}
	return 0
}

// watch regenerates on model changes until interrupted
func watch(cfg *cli.Config, generator *cli.Generator, diagnostics *utils.DiagnosticSystem) int {
	watcher, err := cli.NewWatcher(cfg, generator, diagnostics)
	if err != nil {
		diagnostics.Error("Watch failed: %v", err)
		return 1
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diagnostics.Info("Watching %s for changes (Ctrl+C to stop)", strings.Join(cfg.ModelFiles, ", "))
	if err := watcher.Run(ctx); err != nil {
		diagnostics.Error("Watch failed: %v", err)
		return 1
	}
	return 0
}
