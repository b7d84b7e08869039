package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete remap configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Scope   ScopeConfig   `json:"scope" mapstructure:"scope"`
	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Alias   AliasConfig   `json:"alias" mapstructure:"alias"`
	Verify  VerifyConfig  `json:"verify" mapstructure:"verify"`
	Journal JournalConfig `json:"journal" mapstructure:"journal"`
	Apply   ApplyConfig   `json:"apply" mapstructure:"apply"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScopeConfig contains the default reference scope settings
type ScopeConfig struct {
	Default         string   `json:"default" mapstructure:"default"`
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"excludePatterns"`
}

// ScanConfig contains reference scanning configuration
type ScanConfig struct {
	Workers          int      `json:"workers" mapstructure:"workers"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	ScanTimeoutMs    int      `json:"scanTimeoutMs" mapstructure:"scanTimeoutMs"`
	IgnoreDirs       []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
}

// AliasConfig contains path alias resolution probing conventions
type AliasConfig struct {
	Extensions []string `json:"extensions" mapstructure:"extensions"`
	IndexNames []string `json:"indexNames" mapstructure:"indexNames"`
}

// VerifyConfig contains SCIP reference verification configuration
type VerifyConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	IndexPath string `json:"indexPath" mapstructure:"indexPath"`
	TimeoutMs int    `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// JournalConfig contains plan journal configuration
type JournalConfig struct {
	Enabled  bool `json:"enabled" mapstructure:"enabled"`
	MaxPlans int  `json:"maxPlans" mapstructure:"maxPlans"`
}

// ApplyConfig contains apply engine configuration
type ApplyConfig struct {
	AuditLog        bool   `json:"auditLog" mapstructure:"auditLog"`
	AuditLogMaxSize string `json:"auditLogMaxSize" mapstructure:"auditLogMaxSize"`
	AuditLogBackups int    `json:"auditLogBackups" mapstructure:"auditLogBackups"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Scope: ScopeConfig{
			Default:         "standard",
			ExcludePatterns: []string{},
		},
		Scan: ScanConfig{
			Workers:          0, // 0 means runtime.NumCPU()
			MaxFileSizeBytes: 1000000,
			ScanTimeoutMs:    30000,
			IgnoreDirs:       []string{},
		},
		Alias: AliasConfig{
			Extensions: []string{"", ".ts", ".tsx", ".js", ".jsx", ".d.ts"},
			IndexNames: []string{"index"},
		},
		Verify: VerifyConfig{
			Enabled:   false,
			IndexPath: ".scip/index.scip",
			TimeoutMs: 2000,
		},
		Journal: JournalConfig{
			Enabled:  true,
			MaxPlans: 50,
		},
		Apply: ApplyConfig{
			AuditLog:        true,
			AuditLogMaxSize: "10MB",
			AuditLogBackups: 3,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// EnvOverride records a config value that was overridden from the environment
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// LoadResult carries the loaded config plus details about where it came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// envVarMappings maps environment variables to dotted config paths
var envVarMappings = map[string]string{
	"REMAP_LOG_LEVEL":          "logging.level",
	"REMAP_LOG_FORMAT":         "logging.format",
	"REMAP_SCOPE":              "scope.default",
	"REMAP_SCAN_WORKERS":       "scan.workers",
	"REMAP_SCAN_MAX_FILE_SIZE": "scan.maxFileSizeBytes",
	"REMAP_VERIFY_ENABLED":     "verify.enabled",
	"REMAP_VERIFY_INDEX_PATH":  "verify.indexPath",
	"REMAP_JOURNAL_ENABLED":    "journal.enabled",
	"REMAP_AUDIT_LOG":          "apply.auditLog",
}

// LoadConfig loads configuration from .remap/config.json with env overrides applied
func LoadConfig(repoRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports its provenance.
// REMAP_CONFIG_PATH takes priority over the standard .remap/config.json location.
func LoadConfigWithDetails(repoRoot string) (*LoadResult, error) {
	result := &LoadResult{}

	if envPath := os.Getenv("REMAP_CONFIG_PATH"); envPath != "" {
		cfg, err := loadConfigFromPath(envPath)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.ConfigPath = envPath
	} else {
		v := viper.New()
		setDefaults(v)

		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(filepath.Join(repoRoot, ".remap"))

		if err := v.ReadInConfig(); err != nil {
			// If config doesn't exist, return default config
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				result.Config = DefaultConfig()
				result.UsedDefaults = true
			} else {
				return nil, err
			}
		} else {
			var cfg Config
			if err := v.Unmarshal(&cfg); err != nil {
				return nil, err
			}
			result.Config = &cfg
			result.ConfigPath = v.ConfigFileUsed()
		}
	}

	result.EnvOverrides = applyEnvOverrides(result.Config)
	return result, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", 1)
	v.SetDefault("repoRoot", ".")
	v.SetDefault("scope.default", "standard")
	v.SetDefault("scan.maxFileSizeBytes", 1000000)
	v.SetDefault("scan.scanTimeoutMs", 30000)
	v.SetDefault("alias.extensions", []string{"", ".ts", ".tsx", ".js", ".jsx", ".d.ts"})
	v.SetDefault("alias.indexNames", []string{"index"})
	v.SetDefault("verify.indexPath", ".scip/index.scip")
	v.SetDefault("verify.timeoutMs", 2000)
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.maxPlans", 50)
	v.SetDefault("apply.auditLog", true)
	v.SetDefault("apply.auditLogMaxSize", "10MB")
	v.SetDefault("apply.auditLogBackups", 3)
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.level", "info")
}

// loadConfigFromPath reads a config file from an explicit path.
// Fields not present in the file keep their default values.
func loadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies REMAP_* environment variables on top of cfg
// and returns the overrides that took effect. Unparseable values are skipped.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride
	for envVar, path := range envVarMappings {
		raw, ok := os.LookupEnv(envVar)
		if !ok || raw == "" {
			continue
		}
		value, ok := coerceValue(path, raw)
		if !ok {
			continue
		}
		if applyOverride(cfg, path, value) {
			overrides = append(overrides, EnvOverride{EnvVar: envVar, Field: path, Value: raw})
		}
	}
	return overrides
}

// coerceValue parses raw into the type the dotted path expects
func coerceValue(path, raw string) (interface{}, bool) {
	switch path {
	case "scan.workers", "scan.maxFileSizeBytes":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		return n, true
	case "verify.enabled", "journal.enabled", "apply.auditLog":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return raw, true
	}
}

// applyOverride sets a single config field addressed by a dotted path.
// Returns false for unknown paths or mismatched value types.
func applyOverride(cfg *Config, path string, value interface{}) bool {
	parts := strings.Split(path, ".")
	if len(parts) != 2 {
		return false
	}

	switch parts[0] {
	case "logging":
		s, ok := value.(string)
		if !ok {
			return false
		}
		switch parts[1] {
		case "level":
			cfg.Logging.Level = s
		case "format":
			cfg.Logging.Format = s
		default:
			return false
		}
	case "scope":
		s, ok := value.(string)
		if !ok || parts[1] != "default" {
			return false
		}
		cfg.Scope.Default = s
	case "scan":
		n, ok := value.(int)
		if !ok {
			return false
		}
		switch parts[1] {
		case "workers":
			cfg.Scan.Workers = n
		case "maxFileSizeBytes":
			cfg.Scan.MaxFileSizeBytes = n
		default:
			return false
		}
	case "verify":
		switch parts[1] {
		case "enabled":
			b, ok := value.(bool)
			if !ok {
				return false
			}
			cfg.Verify.Enabled = b
		case "indexPath":
			s, ok := value.(string)
			if !ok {
				return false
			}
			cfg.Verify.IndexPath = s
		default:
			return false
		}
	case "journal":
		b, ok := value.(bool)
		if !ok || parts[1] != "enabled" {
			return false
		}
		cfg.Journal.Enabled = b
	case "apply":
		b, ok := value.(bool)
		if !ok || parts[1] != "auditLog" {
			return false
		}
		cfg.Apply.AuditLog = b
	default:
		return false
	}
	return true
}

// GetSupportedEnvVars returns all environment variables the loader recognizes
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings)+1)
	vars = append(vars, "REMAP_CONFIG_PATH")
	for envVar := range envVarMappings {
		vars = append(vars, envVar)
	}
	return vars
}

// Save writes the configuration to .remap/config.json
func (c *Config) Save(repoRoot string) error {
	configDir := filepath.Join(repoRoot, ".remap")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.json")

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// Write to file
	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Scan.Workers < 0 {
		return &ConfigError{Field: "scan.workers", Message: "must be >= 0"}
	}
	if c.Scan.MaxFileSizeBytes <= 0 {
		return &ConfigError{Field: "scan.maxFileSizeBytes", Message: "must be > 0"}
	}
	if c.Journal.MaxPlans < 0 {
		return &ConfigError{Field: "journal.maxPlans", Message: "must be >= 0"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
