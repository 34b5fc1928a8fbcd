package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"civiroster/lib/configutil"
	"civiroster/lib/fetch"
	"civiroster/lib/roster"
)

type FetchConfig struct {
	PolitenessMs int    `json:"politeness_ms"`
	TimeoutSec   int    `json:"timeout_sec"`
	UserAgent    string `json:"user_agent"`
	// when set, every fetched page is mirrored into this directory.
	DumpDir string `json:"dump_dir"`
}

type SinkConfig struct {
	// local sqlite file path, or a libsql:// URL for a remote database
	Database string `json:"database"`
}

type Config struct {
	Fetch FetchConfig `json:"fetch"`
	Sink  SinkConfig  `json:"sink"`
}

func readConfig() Config {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		slog.Debug("no config file, using defaults", "err", err.Error())
		return Config{}
	}
	return config
}

func (c SinkConfig) databasePath() string {
	if c.Database == "" {
		return "civiroster.db"
	}
	return c.Database
}

// environment variables like LAVAL_SSL_VERIFY=false, LAVAL_CA_BUNDLE=...
// and LAVAL_SSL_FALLBACK=true override the certificate handling of a
// single source. some municipal sites serve chains the system trust
// store rejects.
func tlsFromEnv(source string) fetch.TLSPolicy {
	prefix := strings.ToUpper(source)
	policy := fetch.TLSPolicy{}

	if v, ok := os.LookupEnv(prefix + "_SSL_VERIFY"); ok && isFalsy(v) {
		policy.SkipVerify = true
	}
	if v, ok := os.LookupEnv(prefix + "_CA_BUNDLE"); ok && v != "" {
		policy.CABundle = v
	}
	if v, ok := os.LookupEnv(prefix + "_SSL_FALLBACK"); ok && isTruthy(v) {
		policy.InsecureFallback = true
	}
	return policy
}

func isFalsy(v string) bool {
	switch strings.ToLower(v) {
	case "0", "false", "no":
		return true
	}
	return false
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func newSource(config Config, name string) (roster.Source, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source '%s', run 'civiroster sources' for the full list", name)
	}

	opts := fetch.Options{
		Politeness:       time.Duration(config.Fetch.PolitenessMs) * time.Millisecond,
		Timeout:          time.Duration(config.Fetch.TimeoutSec) * time.Second,
		UserAgent:        config.Fetch.UserAgent,
		TLS:              tlsFromEnv(name),
		CloudflareBypass: entry.cloudflareBypass,
	}
	if config.Fetch.DumpDir != "" {
		dump, err := fetch.NewDumpDir(config.Fetch.DumpDir)
		if err != nil {
			return nil, err
		}
		opts.Dump = dump
	}
	client, err := fetch.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return entry.build(client), nil
}
