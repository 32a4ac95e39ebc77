// Package config loads settings from defaults, an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guohuiyuan/music-stream/key"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. MUSIC_STREAM_SAAVN_TIMEOUT.
const EnvPrefix = "MUSIC_STREAM"

// EnvKeyReplacer maps config keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Server    Server
	Logs      Logs
	Saavn     Saavn
	Instances Instances
	Proxy     Proxy
	Lastfm    Lastfm
	Feed      Feed
}

type Server struct {
	Port      int
	Origins   []string
	RateLimit float64
	Burst     int
}

type Logs struct {
	Level string
	JSON  bool
}

type Saavn struct {
	BaseURL string
	Timeout time.Duration
}

type Instances struct {
	Source  string
	Refresh time.Duration
	Timeout time.Duration
}

type Proxy struct {
	Timeout time.Duration
}

type Lastfm struct {
	APIKey  string
	BaseURL string
}

type Feed struct {
	Database    string
	Concurrency int
	Sessions    map[string][]string
}

// New returns a viper instance with defaults and environment bindings in place.
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()
	// PORT is what most hosting platforms set
	_ = v.BindEnv(key.ServerPort, EnvPrefix+"_SERVER_PORT", "PORT")

	for _, f := range defaults {
		v.SetDefault(f.Key, f.Value)
	}
	return v
}

// Load reads path (yaml, toml or json by extension) when it is not empty and
// returns the merged configuration.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := New(fs)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Port:      v.GetInt(key.ServerPort),
			Origins:   list(v.GetStringSlice(key.ServerOrigins)),
			RateLimit: v.GetFloat64(key.ServerRateLimit),
			Burst:     v.GetInt(key.ServerBurst),
		},
		Logs: Logs{
			Level: v.GetString(key.LogsLevel),
			JSON:  v.GetBool(key.LogsJSON),
		},
		Saavn: Saavn{
			BaseURL: strings.TrimRight(v.GetString(key.SaavnBaseURL), "/"),
			Timeout: v.GetDuration(key.SaavnTimeout),
		},
		Instances: Instances{
			Source:  v.GetString(key.InstancesSource),
			Refresh: v.GetDuration(key.InstancesRefresh),
			Timeout: v.GetDuration(key.InstancesTimeout),
		},
		Proxy: Proxy{Timeout: v.GetDuration(key.ProxyTimeout)},
		Lastfm: Lastfm{
			APIKey:  v.GetString(key.LastfmAPIKey),
			BaseURL: v.GetString(key.LastfmBaseURL),
		},
		Feed: Feed{
			Database:    v.GetString(key.FeedDatabase),
			Concurrency: v.GetInt(key.FeedConcurrency),
			Sessions:    v.GetStringMapStringSlice(key.FeedSessions),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server can't start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s: %d out of range", key.ServerPort, c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", key.ServerRateLimit))
	}
	if c.Saavn.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%s: required", key.SaavnBaseURL))
	}
	if c.Instances.Source == "" {
		errs = append(errs, fmt.Errorf("%s: required", key.InstancesSource))
	}
	return errors.Join(errs...)
}

// list accepts both ["a","b"] and a single "a,b" entry, which is how the
// value arrives from an environment variable.
func list(in []string) []string {
	var out []string
	for _, s := range in {
		out = append(out, strings.Split(s, ",")...)
	}
	return lo.Compact(lo.Map(out, func(s string, _ int) string { return strings.TrimSpace(s) }))
}
