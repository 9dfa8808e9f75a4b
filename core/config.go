package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type Config struct {
	Debug   bool
	Env     string
	AppName string
	Build   string

	// Storage holds the tabular file storage settings. DataDir is the only
	// storage location the application writes to; it is injected into the
	// storage layer at construction and never read from a process-wide default.
	Storage struct {
		DataDir     string
		LockTimeout time.Duration
	}

	Rollbar struct {
		Token string
	}
}

// NewConfig loads the application configuration: defaults first, then a
// config/.env.<env> overlay if present, then environment variables.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Shule")
	conf.SetDefault("build", "dev")
	conf.SetDefault("dataDir", "data")
	conf.SetDefault("lockTimeout", 5*time.Second)
	conf.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Debug:   conf.GetBool("debug"),
		Env:     env,
		AppName: conf.GetString("appName"),
		Build:   conf.GetString("build"),
	}
	c.Storage.DataDir = conf.GetString("dataDir")
	c.Storage.LockTimeout = conf.GetDuration("lockTimeout")
	c.Rollbar.Token = conf.GetString("rollbarToken")

	if err := c.check(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func (c *Config) check() error {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.Storage.DataDir, "dataDir"),
	).Check(); err != nil {
		return err
	}
	if c.Storage.LockTimeout <= 0 {
		return NewArgumentError("lockTimeout must be positive")
	}
	return nil
}
