package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/roniherschmann/go-seqid/alphabet"
)

type Config struct {
	Port           int     `mapstructure:"port"`
	DBDSN          string  `mapstructure:"db_dsn"`
	AdminToken     string  `mapstructure:"admin_token"`
	Prewarm        int     `mapstructure:"prewarm"`
	IssueRateRPS   float64 `mapstructure:"issue_rate_rps"`
	IssueRateBurst int     `mapstructure:"issue_rate_burst"`
	IssueBuffer    int     `mapstructure:"issue_buffer"`
	LogLevel       string  `mapstructure:"log_level"`
	BaseURL        string  `mapstructure:"base_url"` // used for returning absolute sequence URLs

	// Sequences are created at startup unless they already exist.
	Sequences []SequenceConfig `mapstructure:"sequences"`
}

type SequenceConfig struct {
	Name     string `mapstructure:"name"`
	Alphabet string `mapstructure:"alphabet"`
	Charset  string `mapstructure:"charset"` // predefined alphabet, see alphabet.Lookup
	Prefix   string `mapstructure:"prefix"`
	Start    int64  `mapstructure:"start"`
}

// Symbols resolves the alphabet of the sequence, preferring an explicit
// alphabet over a named charset.
func (s SequenceConfig) Symbols() (string, error) {
	if s.Alphabet != "" {
		return s.Alphabet, nil
	}
	if s.Charset == "" {
		return "", fmt.Errorf("sequence %s: alphabet or charset required", s.Name)
	}
	symbols, ok := alphabet.Lookup(s.Charset)
	if !ok {
		return "", fmt.Errorf("sequence %s: unknown charset %q (known: %s)", s.Name, s.Charset, strings.Join(alphabet.Names(), ", "))
	}
	return symbols, nil
}

// New returns a viper instance with defaults and environment bindings. When
// file is empty an optional seqid.yaml is looked up in . and ./config.
func New(file string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("db_dsn", "file:seqid.db?_foreign_keys=on")
	v.SetDefault("admin_token", "")
	v.SetDefault("prewarm", 100)
	v.SetDefault("issue_rate_rps", 50.0)
	v.SetDefault("issue_rate_burst", 100)
	v.SetDefault("issue_buffer", 10000)
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "")

	v.SetEnvPrefix("SEQID")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.BindEnv("port", "SEQID_PORT", "PORT")
	v.BindEnv("db_dsn", "SEQID_DB_DSN", "DB_DSN")
	v.BindEnv("admin_token", "SEQID_ADMIN_TOKEN", "ADMIN_TOKEN")
	v.BindEnv("base_url", "SEQID_BASE_URL", "BASE_URL")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("seqid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	for _, s := range cfg.Sequences {
		if _, err := s.Symbols(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
