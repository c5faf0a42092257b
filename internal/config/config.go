package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/theplant/searchspec"
	"github.com/theplant/searchspec/filter"
)

// EnvPrefix prefixes the environment variable of every flag, e.g. SEARCHD_MAX_PAGE_SIZE.
const EnvPrefix = "SEARCHD"

// Config configures the search service.
type Config struct {
	Addr            string
	DSN             string
	LogLevel        logrus.Level
	Coercion        filter.Coercion
	DefaultPageSize int
	MaxPageSize     int
	Metrics         bool
}

// Default is the configuration used for every key that is not set.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		LogLevel:        logrus.InfoLevel,
		Coercion:        filter.CoercionLenient,
		DefaultPageSize: searchspec.DefaultPageSize,
		MaxPageSize:     100,
		Metrics:         true,
	}
}

// SetupFlags declares a flag per configuration key.
func SetupFlags(fs *pflag.FlagSet, d *Config) {
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.String("dsn", d.DSN, "postgres data source name")
	fs.String("log-level", d.LogLevel.String(), "log level (debug|info|warning|error)")
	fs.String("coercion", d.Coercion.String(), "value coercion mode (lenient|strict)")
	fs.Int("default-page-size", d.DefaultPageSize, "page size used when a request has none")
	fs.Int("max-page-size", d.MaxPageSize, "largest page size a request may ask for")
	fs.Bool("metrics", d.Metrics, "serve Prometheus metrics at /metrics")
}

func setupDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("addr", d.Addr)
	v.SetDefault("dsn", d.DSN)
	v.SetDefault("log-level", d.LogLevel.String())
	v.SetDefault("coercion", d.Coercion.String())
	v.SetDefault("default-page-size", d.DefaultPageSize)
	v.SetDefault("max-page-size", d.MaxPageSize)
	v.SetDefault("metrics", d.Metrics)
}

// NewViper returns a viper reading flags from fs, SEARCHD_* environment variables and,
// if cfgFile is not empty, a config file. Flags take precedence over the environment.
func NewViper(fs *pflag.FlagSet, cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setupDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, errors.Wrap(err, "bind flags")
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", cfgFile)
		}
	}
	return v, nil
}

// Load reads and validates the configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	level, err := logrus.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, errors.Wrap(err, "log-level")
	}
	coercion, err := filter.ParseCoercion(v.GetString("coercion"))
	if err != nil {
		return nil, errors.Wrap(err, "coercion")
	}

	c := &Config{
		Addr:            v.GetString("addr"),
		DSN:             v.GetString("dsn"),
		LogLevel:        level,
		Coercion:        coercion,
		DefaultPageSize: v.GetInt("default-page-size"),
		MaxPageSize:     v.GetInt("max-page-size"),
		Metrics:         v.GetBool("metrics"),
	}
	if c.DefaultPageSize <= 0 {
		return nil, errors.Errorf("default-page-size must be positive, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return nil, errors.Errorf("max-page-size %d is less than default-page-size %d", c.MaxPageSize, c.DefaultPageSize)
	}
	return c, nil
}
