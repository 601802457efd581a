package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envScoutfsCmd     = "SCOUTAM_CHECK_SCOUTFS_CMD"
	envMonitorCmd     = "SCOUTAM_CHECK_MONITOR_CMD"
	envSamcliCmd      = "SCOUTAM_CHECK_SAMCLI_CMD"
	envStateFile      = "SCOUTAM_CHECK_STATE_FILE"
	envCommandTimeout = "SCOUTAM_CHECK_COMMAND_TIMEOUT"
)

const (
	defaultScoutfsCmd     = "/usr/sbin/scoutfs"
	defaultMonitorCmd     = "/usr/sbin/scoutam-monitor"
	defaultSamcliCmd      = "/usr/bin/samcli"
	defaultStateFile      = "/var/lib/nagios/check_scoutam_sequences.json"
	defaultCommandTimeout = 30 * time.Second
)

// Config carries every external path and name the checks touch, so
// tests can substitute all of them.
type Config struct {
	ScoutfsCmd string
	MonitorCmd string
	SamcliCmd  string

	ScoutAMUnit   string
	FencedUnit    string
	VersityGWUnit string
	ScoutGWUnit   string

	VersityGWConfDir string
	ScoutGWConfDir   string
	MultiFSConf      string

	StateFile      string
	CommandTimeout time.Duration
}

// Default returns the built-in configuration without consulting the
// environment.
func Default() Config {
	return Config{
		ScoutfsCmd: defaultScoutfsCmd,
		MonitorCmd: defaultMonitorCmd,
		SamcliCmd:  defaultSamcliCmd,

		ScoutAMUnit:   "scoutam.service",
		FencedUnit:    "scoutfs-fenced.service",
		VersityGWUnit: "versitygw@",
		ScoutGWUnit:   "scoutgw@",

		VersityGWConfDir: "/etc/versitygw.d",
		ScoutGWConfDir:   "/etc/scoutgw.d",
		MultiFSConf:      "/etc/scoutam/multifs.yaml",

		StateFile:      defaultStateFile,
		CommandTimeout: defaultCommandTimeout,
	}
}

// Load reads configuration from environment variables and a local
// .env file if present. Existing environment variables take
// precedence over values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if value, ok := lookupTrimmed(envScoutfsCmd); ok {
		cfg.ScoutfsCmd = value
	}
	if value, ok := lookupTrimmed(envMonitorCmd); ok {
		cfg.MonitorCmd = value
	}
	if value, ok := lookupTrimmed(envSamcliCmd); ok {
		cfg.SamcliCmd = value
	}
	if value, ok := lookupTrimmed(envStateFile); ok {
		cfg.StateFile = value
	}
	if value, ok := lookupTrimmed(envCommandTimeout); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envCommandTimeout, err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envCommandTimeout)
		}
		cfg.CommandTimeout = timeout
	}

	return cfg, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}
