// Package config resolves tracker settings from flags, RSOTRACK_* environment
// variables and an optional config file, in that priority order.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/rso-tracker/internal/logging"
	"github.com/signalsfoundry/rso-tracker/internal/observability"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "RSOTRACK"

// Defaults for the file locations the tracker reads and writes.
const (
	DefaultInput       = "rso_metrics.csv"
	DefaultOutput      = "Updated_RSO_Metrics.csv"
	DefaultUsers       = "USERS.csv"
	DefaultActivityLog = "LOGS.txt"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings shared by every subcommand.
type Config struct {
	ConfigFile  string
	Input       string
	Output      string
	Users       string
	User        string
	Password    string
	LogLevel    string
	LogFormat   string
	ActivityLog string
	MetricsFile string
	Strict      bool

	Tracing            bool
	TracingExporter    string
	TracingServiceName string
	TracingSampleRatio float64
	OTLPEndpoint       string
}

// Bind registers the persistent flags on flags, storing values into c.
func Bind(flags *pflag.FlagSet, c *Config) {
	flags.StringVarP(&c.ConfigFile, "config", "c", "", "Configuration file to read from (toml, yaml or json).")
	flags.StringVar(&c.Input, "input", DefaultInput, "Dataset to load.")
	flags.StringVar(&c.Output, "output", DefaultOutput, "Destination for the enriched dataset.")
	flags.StringVar(&c.Users, "users", DefaultUsers, "Users file with name,role,password rows.")
	flags.StringVarP(&c.User, "user", "u", "", "User name to log in as.")
	flags.StringVarP(&c.Password, "password", "p", "", "Password for --user.")
	flags.StringVar(&c.LogLevel, "log-level", "info", "Log level: debug, info, warn or error.")
	flags.StringVar(&c.LogFormat, "log-format", "text", "Log format: text or json.")
	flags.StringVar(&c.ActivityLog, "activity-log", DefaultActivityLog, "Append-only activity log; empty disables it.")
	flags.StringVar(&c.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit.")
	flags.BoolVar(&c.Strict, "strict", false, "Abort the load on the first malformed row.")

	flags.BoolVar(&c.Tracing, "tracing", false, "Export OpenTelemetry spans for this run.")
	flags.StringVar(&c.TracingExporter, "tracing-exporter", observability.ExporterStdout, "Span exporter: stdout or otlp.")
	flags.StringVar(&c.TracingServiceName, "tracing-service-name", observability.DefaultServiceName, "service.name resource attribute.")
	flags.Float64Var(&c.TracingSampleRatio, "tracing-sample-ratio", 1, "Fraction of runs to trace, 0 to 1.")
	flags.StringVar(&c.OTLPEndpoint, "otlp-endpoint", observability.DefaultOTLPEndpoint, "OTLP/gRPC collector address.")
}

// Load reads the command line, the environment and a config file (if
// specified) into the values bound to flags. Flags set on the command line
// win, then RSOTRACK_* variables, then the file, then flag defaults.
//
// Environment variables are the capitalized flag names with dashes replaced
// by underscores, prefixed with EnvPrefix and an underscore.
func Load(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		if filepath.Ext(c) == "" {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}
		for _, key := range v.AllKeys() {
			if _, ok := validTags[key]; !ok {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}

// Validate rejects settings no subcommand can run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("%w: input path is empty", ErrInvalid)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.LogLevel)
	}
	if err := c.TracingConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Logging returns the logger settings carried by c.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:       c.LogLevel,
		Format:      c.LogFormat,
		ActivityLog: c.ActivityLog,
	}
}

// TracingConfig returns the span export settings carried by c.
func (c Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing,
		ServiceName: c.TracingServiceName,
		Exporter:    c.TracingExporter,
		Endpoint:    c.OTLPEndpoint,
		SampleRatio: c.TracingSampleRatio,
	}
}
