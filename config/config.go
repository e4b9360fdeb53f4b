// Package config loads the settings that select and build a document store.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/aqua777/go-fireorm/validation"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FIREORM"

// Offline engine names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Backends lists the accepted offline engine names.
var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis}

// Config keys, as used in config files. The environment variable for a key
// is EnvPrefix + "_" + the key upper-cased with dots replaced by underscores,
// for example FIREORM_OFFLINE_BACKEND.
const (
	KeyTestMode        = "test_mode"
	KeyProjectID       = "project_id"
	KeyDatabaseID      = "database_id"
	KeyCredentialsFile = "credentials_file"
	KeyBackend         = "offline.backend"
	KeyPath            = "offline.path"
	KeyRedisAddr       = "offline.redis_addr"
	KeyRedisPassword   = "offline.redis_password"
	KeyRedisDB         = "offline.redis_db"
	KeyRedisPrefix     = "offline.redis_prefix"
	KeyFixtures        = "offline.fixtures"
)

// Config selects the live or the offline store and carries what is needed
// to build it. It is read once, when the store is opened.
type Config struct {
	// TestMode selects the offline store.
	TestMode bool `mapstructure:"test_mode" yaml:"test_mode"`

	ProjectID       string `mapstructure:"project_id" yaml:"project_id"`
	DatabaseID      string `mapstructure:"database_id" yaml:"database_id"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	Offline OfflineConfig `mapstructure:"offline" yaml:"offline"`
}

// OfflineConfig configures the engine behind the offline store.
type OfflineConfig struct {
	Backend       string `mapstructure:"backend" yaml:"backend"`
	Path          string `mapstructure:"path" yaml:"path"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	// Fixtures is an optional YAML file seeded into the offline store on open.
	Fixtures string `mapstructure:"fixtures" yaml:"fixtures"`
}

// Default returns the configuration used when nothing is set: live mode,
// with an in-memory offline engine ready for test mode.
func Default() Config {
	return Config{
		Offline: OfflineConfig{
			Backend: BackendMemory,
		},
	}
}

// TestConfig returns a configuration for an in-memory offline store.
func TestConfig() Config {
	c := Default()
	c.TestMode = true
	return c
}

// Load reads configuration from defaults, the optional file at path and
// FIREORM_* environment variables, in increasing order of precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", path)
		}
	}
	return FromViper(v)
}

// SetDefaults registers every key with its default on v, which also makes
// every key visible to AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyTestMode, d.TestMode)
	v.SetDefault(KeyProjectID, d.ProjectID)
	v.SetDefault(KeyDatabaseID, d.DatabaseID)
	v.SetDefault(KeyCredentialsFile, d.CredentialsFile)
	v.SetDefault(KeyBackend, d.Offline.Backend)
	v.SetDefault(KeyPath, d.Offline.Path)
	v.SetDefault(KeyRedisAddr, d.Offline.RedisAddr)
	v.SetDefault(KeyRedisPassword, d.Offline.RedisPassword)
	v.SetDefault(KeyRedisDB, d.Offline.RedisDB)
	v.SetDefault(KeyRedisPrefix, d.Offline.RedisPrefix)
	v.SetDefault(KeyFixtures, d.Offline.Fixtures)
}

// FromViper binds the environment on v and decodes it into a validated Config.
func FromViper(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "config: decode")
	}
	c.Offline.Backend = strings.ToLower(strings.TrimSpace(c.Offline.Backend))
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that the selected mode has what it needs.
func (c Config) Validate() error {
	v := validation.NewValidator()
	if c.TestMode {
		v.RequireOneOf(c.Offline.Backend, Backends, KeyBackend)
		switch c.Offline.Backend {
		case BackendFile, BackendSQLite:
			v.RequireNotEmpty(c.Offline.Path, KeyPath)
		case BackendRedis:
			v.RequireNotEmpty(c.Offline.RedisAddr, KeyRedisAddr)
			v.RequireNonNegative(c.Offline.RedisDB, KeyRedisDB)
		}
	} else {
		v.RequireNotEmpty(c.ProjectID, KeyProjectID)
	}
	return v.Error()
}
