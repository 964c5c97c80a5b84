package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/leapmacro/internal/config"
)

// loggerKey is used to store the logger in the command context.
type loggerKey struct{}

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "LEAPMACRO_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

func configExistsIn(dir string) string {
	for _, name := range []string{intconfig.ConfigFileName, intconfig.ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a config file.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if configExistsIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Explicit --project-dir flag
//  2. Directory of an explicit --config file
//  3. Parent of a --macros-dir named "macros"
//  4. Nearest ancestor of the working directory holding leapmacro.yaml
//  5. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if flags != nil && flags.Changed("project-dir") {
		if dir, _ := flags.GetString("project-dir"); dir != "" {
			return absOrClean(dir)
		}
	}

	if cfgFile != "" {
		return filepath.Dir(absOrClean(cfgFile))
	}

	if flags != nil && flags.Changed("macros-dir") {
		if dir, _ := flags.GetString("macros-dir"); dir != "" {
			abs := absOrClean(dir)
			if filepath.Base(abs) == intconfig.DefaultMacrosDir {
				return filepath.Dir(abs)
			}
		}
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := findProjectRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

func absOrClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// envKey maps LEAPMACRO_LOG_MAX_SIZE_MB to log.max_size_mb.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}

// flagKey maps --log-level to log.level and --out-dir to out_dir.
func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "log-"); ok {
		return "log." + strings.ReplaceAll(rest, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from defaults, file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile, flags)

	// Flag paths are relative to the working directory, not the project root.
	flagPaths := map[string]string{}
	if flags != nil {
		for _, name := range []string{"macros-dir", "out-dir", "cache", "log-file"} {
			if f := flags.Lookup(name); f != nil && f.Changed && f.Value.String() != "" {
				flagPaths[flagKey(name)] = absOrClean(f.Value.String())
			}
		}
	}

	// 1. Defaults
	def := Default()
	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":          def.Dialect,
		"macros_dir":       def.MacrosDir,
		"out_dir":          def.OutDir,
		"cache":            def.Cache,
		"source_maps":      def.SourceMaps,
		"sources_content":  def.SourcesContent,
		"context_lines":    def.ContextLines,
		"color":            def.Color,
		"workers":          def.Workers,
		"verify":           def.Verify,
		"verbose":          def.Verbose,
		"output":           def.OutputFormat,
		"log.level":        def.Log.Level,
		"log.max_size_mb":  def.Log.MaxSizeMB,
		"log.max_backups":  def.Log.MaxBackups,
		"log.max_age_days": def.Log.MaxAgeDays,
		"log.compress":     def.Log.Compress,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile != "" {
		configFileUsed = cfgFile
	} else {
		configFileUsed = configExistsIn(projectRoot)
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Explicitly set flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "config", "project-dir":
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.MacrosDir = pathOf(flagPaths, "macros_dir", cfg.MacrosDir, projectRoot)
	cfg.OutDir = pathOf(flagPaths, "out_dir", cfg.OutDir, projectRoot)
	cfg.Cache = pathOf(flagPaths, "cache", cfg.Cache, projectRoot)
	cfg.Log.File = pathOf(flagPaths, "log.file", cfg.Log.File, projectRoot)
	cfg.Log.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = cfg
	return cfg, nil
}

func pathOf(flagPaths map[string]string, key, value, root string) string {
	if p, ok := flagPaths[key]; ok {
		return p
	}
	return resolvePathRelativeTo(value, root)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration loaded by the last LoadConfig.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// The commands package reads the logger without importing the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
