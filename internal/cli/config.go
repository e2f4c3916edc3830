package cli

import (
	"flag"
	"go/token"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/toyz/typeshape/internal/errors"
)

// Environment variables consulted by LoadConfig
const (
	EnvFile       = "TYPESHAPE_ENV_FILE"
	EnvModel      = "TYPESHAPE_MODEL"
	EnvOperations = "TYPESHAPE_OPERATIONS"
	EnvOutput     = "TYPESHAPE_OUT"
	EnvPackage    = "TYPESHAPE_PACKAGE"
	EnvSchemaDir  = "TYPESHAPE_SCHEMA_DIR"
	EnvModule     = "TYPESHAPE_MODULE"
	EnvVerbose    = "TYPESHAPE_VERBOSE"
)

const (
	DefaultEnvFile     = ".env"
	DefaultOutputDir   = "gen"
	DefaultPackageName = "params"
)

// Config holds the configuration for the CLI generator
type Config struct {
	// ModelFiles are the YAML model documents, merged into one model
	ModelFiles []string

	// Operations selects operations by full or short name; empty means all
	Operations []string

	// OutputDir receives the generated Go source
	OutputDir string

	// PackageName is the package clause of the generated source
	PackageName string

	// SchemaDir receives one JSON Schema per parameter type; empty disables schemas
	SchemaDir string

	// ModuleName is the custom module name for imports
	// If empty, will be determined from go.mod file
	ModuleName string

	Verbose bool
	Quiet   bool
	Clean   bool

	// Watch regenerates whenever a model file changes
	Watch bool
}

// LoadConfig builds the configuration from, in increasing precedence, a .env file,
// TYPESHAPE_* environment variables and the command line. Positional arguments are
// additional model files.
func LoadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	verboseDefault, err := envBool(EnvVerbose)
	if err != nil {
		return nil, err
	}

	var (
		models     string
		operations string
		cfg        = &Config{}
	)
	fs.StringVar(&models, "model", os.Getenv(EnvModel), "Comma separated model files (YAML)")
	fs.StringVar(&operations, "operation", os.Getenv(EnvOperations), "Comma separated operations to generate (defaults to all)")
	fs.StringVar(&cfg.OutputDir, "out", envOr(EnvOutput, DefaultOutputDir), "Output directory for generated Go source")
	fs.StringVar(&cfg.PackageName, "package", envOr(EnvPackage, DefaultPackageName), "Package name of the generated source")
	fs.StringVar(&cfg.SchemaDir, "schema", os.Getenv(EnvSchemaDir), "Output directory for JSON schemas (disabled when empty)")
	fs.StringVar(&cfg.ModuleName, "module", os.Getenv(EnvModule), "Custom module name for imports (defaults to go.mod module)")
	fs.BoolVar(&cfg.Verbose, "verbose", verboseDefault, "Enable verbose output and detailed error reporting")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Only show errors and final results")
	fs.BoolVar(&cfg.Clean, "clean", false, "Delete generated files instead of generating them")
	fs.BoolVar(&cfg.Watch, "watch", false, "Regenerate whenever a model file changes")

	if err := fs.Parse(args); err != nil {
		return nil, errors.WrapConfigurationError("flags", "parse", err)
	}

	cfg.ModelFiles = append(splitList(models), fs.Args()...)
	cfg.Operations = splitList(operations)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Verbose && c.Quiet {
		return errors.ConfigurationError("flags", "-verbose and -quiet are mutually exclusive")
	}
	if c.OutputDir == "" {
		return errors.ConfigurationError("output", "output directory must not be empty")
	}
	if c.Clean {
		if c.Watch {
			return errors.ConfigurationError("flags", "-clean and -watch are mutually exclusive")
		}
		return nil
	}
	if len(c.ModelFiles) == 0 {
		return errors.ConfigurationError("model", "at least one model file is required").
			WithSuggestion("Pass -model shop.yaml or set " + EnvModel)
	}
	if !token.IsIdentifier(c.PackageName) {
		return errors.ConfigurationError("package", "'"+c.PackageName+"' is not a valid package name")
	}
	return nil
}

// loadEnvFile loads TYPESHAPE_ENV_FILE or .env; a missing file is not an error
func loadEnvFile() error {
	path := envOr(EnvFile, DefaultEnvFile)
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapConfigurationError("env file", "load", err).WithContext("path", path)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.WrapConfigurationError("environment", "parse "+key, err)
	}
	return v, nil
}

func splitList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
