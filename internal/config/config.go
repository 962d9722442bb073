// Package config loads modelgen configuration from defaults, the environment
// (optionally seeded from a .env file), an optional YAML file and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/modelgen/internal/core/model"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MODELGEN_"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Source kinds.
const (
	SourceSQLite     = "sqlite"
	SourcePostgres   = "postgres"
	SourceDuckDB     = "duckdb"
	SourceMSSQL      = "mssql"
	SourceSchemaFile = "schemafile"
	SourceMarkdown   = "markdown"
)

// Config represents the modelgen configuration
type Config struct {
	Source     SourceConfig     `yaml:"source"     envPrefix:"SOURCE_"`
	Output     OutputConfig     `yaml:"output"     envPrefix:"OUTPUT_"`
	Generation GenerationConfig `yaml:"generation" envPrefix:"GEN_"`
	Logging    LoggingConfig    `yaml:"logging"    envPrefix:"LOG_"`
	Server     ServerConfig     `yaml:"server"     envPrefix:"SERVER_"`
}

// SourceConfig selects and addresses the schema source.
type SourceConfig struct {
	Kind    string        `yaml:"kind"    env:"KIND"    envDefault:"sqlite"` // sqlite, postgres, duckdb, mssql, schemafile, markdown
	DSN     string        `yaml:"dsn"     env:"DSN"`                          // database sources
	Path    string        `yaml:"path"    env:"PATH"`                         // schemafile and markdown sources
	Schema  string        `yaml:"schema"  env:"SCHEMA"`                       // postgres / mssql schema, vendor default when empty
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" envDefault:"30s"`
}

// OutputConfig controls where models are written.
type OutputConfig struct {
	Dir      string `yaml:"dir"      env:"DIR"      envDefault:"./models"`
	Manifest bool   `yaml:"manifest" env:"MANIFEST" envDefault:"false"`
}

// GenerationConfig controls the synthesizer.
type GenerationConfig struct {
	Workers       int               `yaml:"workers"       env:"WORKERS"        envDefault:"4"`
	Exclude       []string          `yaml:"exclude"       env:"EXCLUDE"        envDefault:"sysdiagrams,DBScriptHistories,ApplicationConfigurations,ApplicationHistories,LoadDataFiles" envSeparator:","`
	Generator     string            `yaml:"generator"     env:"GENERATOR"      envDefault:"CFWheels Model Generator"`
	ValidationMap map[string]string `yaml:"validationMap" env:"VALIDATION_MAP" envSeparator:"," envKeyValSeparator:":"` // overrides, e.g. geography:binary
	Audit         AuditConfig       `yaml:"audit"         envPrefix:"AUDIT_"`
}

// AuditConfig names the audit columns of the schema. Disabled turns the audit
// handling off; blank names alone fall back to the defaults.
type AuditConfig struct {
	Disabled  bool   `yaml:"disabled"  env:"DISABLED"   envDefault:"false"`
	CreatedAt string `yaml:"createdAt" env:"CREATED_AT" envDefault:"CreatedTimestamp"`
	UpdatedAt string `yaml:"updatedAt" env:"UPDATED_AT" envDefault:"LastUpdatedTimestamp"`
	CreatedBy string `yaml:"createdBy" env:"CREATED_BY" envDefault:"CreatedBy"`
	UpdatedBy string `yaml:"updatedBy" env:"UPDATED_BY" envDefault:"LastUpdatedBy"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"  envDefault:"info"` // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT" envDefault:"text"` // text, json
}

// ServerConfig configures the HTTP preview server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"            env:"ADDR"             envDefault:"127.0.0.1:8080"`
	CORSOrigins     []string      `yaml:"corsOrigins"     env:"CORS_ORIGINS"     envDefault:"*" envSeparator:","`
	CacheEntries    int64         `yaml:"cacheEntries"    env:"CACHE_ENTRIES"    envDefault:"1000"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Overrides carries command-line flag values. Zero values leave the loaded
// configuration untouched.
type Overrides struct {
	SourceKind string
	DSN        string
	Path       string
	Schema     string
	LogLevel   string
	OutputDir  string
	Workers    int
	Addr       string
}

// Load builds the configuration. Precedence, lowest first: envDefault tags,
// .env and process environment, the YAML file at configPath (or
// MODELGEN_CONFIG), then overrides.
func Load(configPath string, overrides Overrides) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if configPath == "" {
		configPath = os.Getenv(EnvPrefix + "CONFIG")
	}
	if configPath != "" {
		if err := loadConfigFromFile(cfg, expandPath(configPath)); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.Apply(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv seeds the process environment from path when it exists.
// Variables already set are not overwritten.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadConfigFromFile merges a YAML file into config.
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)
	return nil
}

// mergeConfigs copies every non-zero value of source onto target. Maps are
// merged key by key.
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		switch {
		case t.Kind() != s.Kind():
			return
		case t.Kind() == reflect.Struct:
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		case t.Kind() == reflect.Map:
			if s.Len() == 0 {
				return
			}
			if t.IsNil() {
				t.Set(reflect.MakeMapWithSize(s.Type(), s.Len()))
			}
			iter := s.MapRange()
			for iter.Next() {
				t.SetMapIndex(iter.Key(), iter.Value())
			}
		case !s.IsZero():
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// Apply applies flag overrides.
func (c *Config) Apply(o Overrides) {
	if o.SourceKind != "" {
		c.Source.Kind = o.SourceKind
	}
	if o.DSN != "" {
		c.Source.DSN = o.DSN
	}
	if o.Path != "" {
		c.Source.Path = o.Path
	}
	if o.Schema != "" {
		c.Source.Schema = o.Schema
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.OutputDir != "" {
		c.Output.Dir = o.OutputDir
	}
	if o.Workers != 0 {
		c.Generation.Workers = o.Workers
	}
	if o.Addr != "" {
		c.Server.Addr = o.Addr
	}
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	switch c.Source.Kind {
	case SourceSQLite, SourcePostgres, SourceDuckDB, SourceMSSQL:
		if c.Source.DSN == "" {
			return fmt.Errorf("%w: source %s requires a dsn", ErrInvalidConfig, c.Source.Kind)
		}
	case SourceSchemaFile, SourceMarkdown:
		if c.Source.Path == "" {
			return fmt.Errorf("%w: source %s requires a path", ErrInvalidConfig, c.Source.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q (must be sqlite, postgres, duckdb, mssql, schemafile or markdown)",
			ErrInvalidConfig, c.Source.Kind)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: invalid log level: %s (must be debug, info, warn, or error)",
			ErrInvalidConfig, c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("%w: invalid log format: %s (must be text or json)", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Generation.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive: %d", ErrInvalidConfig, c.Generation.Workers)
	}

	if _, err := c.ValidationMap(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

// ValidationMap returns the default validation map with configured overrides.
func (c *Config) ValidationMap() (model.ValidationMap, error) {
	overrides := make(map[string]model.SemanticType, len(c.Generation.ValidationMap))
	for sqlType, name := range c.Generation.ValidationMap {
		st, err := model.ParseSemanticType(name)
		if err != nil {
			return nil, fmt.Errorf("validation map entry %s: %w", sqlType, err)
		}
		overrides[sqlType] = st
	}
	return model.DefaultValidationMap().With(overrides), nil
}

// ModelOptions returns synthesizer options for this configuration.
func (c *Config) ModelOptions() (model.Options, error) {
	vm, err := c.ValidationMap()
	if err != nil {
		return model.Options{}, err
	}
	return model.Options{
		ValidationMap: vm,
		Generator:     c.Generation.Generator,
		DisableAudit:  c.Generation.Audit.Disabled,
		Audit: model.AuditColumns{
			CreatedAt: c.Generation.Audit.CreatedAt,
			UpdatedAt: c.Generation.Audit.UpdatedAt,
			CreatedBy: c.Generation.Audit.CreatedBy,
			UpdatedBy: c.Generation.Audit.UpdatedBy,
		},
	}, nil
}

// YAML renders the configuration with credentials in the DSN masked.
func (c *Config) YAML() (string, error) {
	masked := *c
	if masked.Source.DSN != "" {
		masked.Source.DSN = maskDSN(masked.Source.DSN)
	}
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// maskDSN hides the password of URL style and key=value DSNs.
func maskDSN(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at >= 0 {
		if scheme := strings.Index(dsn, "://"); scheme >= 0 && scheme < at {
			creds := dsn[scheme+3 : at]
			if colon := strings.IndexByte(creds, ':'); colon >= 0 {
				return dsn[:scheme+3] + creds[:colon] + ":****" + dsn[at:]
			}
		}
	}

	parts := strings.Split(dsn, ";")
	for i, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 && strings.EqualFold(strings.TrimSpace(kv[0]), "password") {
			parts[i] = kv[0] + "=****"
		}
	}
	return strings.Join(parts, ";")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}
