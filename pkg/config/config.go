package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/ebcrawler/pkg/eurobonus"
	"github.com/yurifrl/ebcrawler/pkg/mount"
)

const (
	envPrefix         = "EBCRAWLER"
	DefaultProfileURL = "https://www.sas.se/profile/"
)

var ErrPagesAndAll = errors.New("can't specify both all and number of pages")

type Config struct {
	EBNumber string `mapstructure:"ebnumber" validate:"omitempty,numeric"`
	Password string `mapstructure:"password"`

	All   bool `mapstructure:"all"`
	Pages int  `mapstructure:"pages" validate:"gte=0"`

	CSV   string `mapstructure:"csv"`
	XLSX  string `mapstructure:"xlsx"`
	Debug bool   `mapstructure:"debug"`

	APIURL            string        `mapstructure:"api_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`

	ProfileURL   string        `mapstructure:"profile_url" validate:"required,url"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
	Headless     bool          `mapstructure:"headless"`
	UserDataDir  string        `mapstructure:"user_data_dir"`

	Port string `mapstructure:"port" validate:"required,numeric"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", eurobonus.DefaultBaseURL)
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("requests_per_second", 2.0)
	v.SetDefault("profile_url", DefaultProfileURL)
	v.SetDefault("poll_interval", mount.DefaultInterval)
	v.SetDefault("port", "3000")
}

// Build merges, lowest precedence first: defaults, the config file, a .env
// file in the working directory, EBCRAWLER_* environment variables and flags.
// Flag names map to keys with dashes replaced by underscores.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"ebnumber", "password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.All && c.Pages > 0 {
		return ErrPagesAndAll
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Paging returns the crawl range for the API client.
func (c *Config) Paging() eurobonus.Paging {
	return eurobonus.Paging{All: c.All, Pages: c.Pages}
}

func (c *Config) ClientOptions() eurobonus.Options {
	return eurobonus.Options{
		BaseURL:           c.APIURL,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Paging:            c.Paging(),
	}
}
