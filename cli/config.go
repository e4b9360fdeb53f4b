package main

import (
	"github.com/aqua777/krait"

	"github.com/aqua777/go-fireorm/config"
)

const FireORMCli = "fireorm"

// Subcommand option keys for krait. Global options reuse the config.Key*
// names so a krait config file has the same layout as one read by config.Load.
const (
	KeyVerbose  = "verbose"
	KeyPage     = "list.page"
	KeyPageSize = "list.page-size"
	KeyWhere    = "query.where"
	KeyContains = "query.contains"
	KeyOutput   = "dump.output"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// configFromFlags builds a config.Config from the global options. Values
// come from flags, FIREORM_* variables and the --config file, in that order.
func configFromFlags() (config.Config, error) {
	d := config.Default()
	cfg := config.Config{
		TestMode:        krait.GetBool(config.KeyTestMode),
		ProjectID:       krait.GetString(config.KeyProjectID),
		DatabaseID:      krait.GetString(config.KeyDatabaseID),
		CredentialsFile: krait.GetString(config.KeyCredentialsFile),
		Offline: config.OfflineConfig{
			Backend:       krait.GetString(config.KeyBackend),
			Path:          krait.GetString(config.KeyPath),
			RedisAddr:     krait.GetString(config.KeyRedisAddr),
			RedisPassword: krait.GetString(config.KeyRedisPassword),
			RedisDB:       krait.GetInt(config.KeyRedisDB),
			RedisPrefix:   krait.GetString(config.KeyRedisPrefix),
			Fixtures:      krait.GetString(config.KeyFixtures),
		},
	}
	if cfg.Offline.Backend == "" {
		cfg.Offline.Backend = d.Offline.Backend
	}
	return cfg, cfg.Validate()
}
