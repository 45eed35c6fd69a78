package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GCCONTENT_LOG_LEVEL.
const EnvPrefix = "GCCONTENT"

type Config struct {
	InputFasta       string `mapstructure:"input_fasta"`
	OutputCSV        string `mapstructure:"output_csv"`
	OutputJSON       string `mapstructure:"output_json"`
	ChartDir         string `mapstructure:"chart_dir"`
	LogFile          string `mapstructure:"log_file"`
	LogLevel         string `mapstructure:"log_level"`
	NcbiCachePath    string `mapstructure:"ncbi_cache_path"`
	NcbiApiKey       string `mapstructure:"ncbi_api_key"`
	NcbiCacheTTLSecs int64  `mapstructure:"ncbi_cache_ttl_seconds"`
	Workers          int    `mapstructure:"workers"`
	Addr             string `mapstructure:"addr"`
	MaxUploadBytes   int64  `mapstructure:"max_upload_bytes"`
}

var defaults = map[string]any{
	"input_fasta":            "",
	"output_csv":             "",
	"output_json":            "",
	"chart_dir":              "",
	"log_file":               "",
	"log_level":              "info",
	"ncbi_cache_path":        "",
	"ncbi_api_key":           "",
	"ncbi_cache_ttl_seconds": 0,
	"workers":                0,
	"addr":                   ":8080",
	"max_upload_bytes":       32 << 20,
}

// LoadConfig loads configuration from the given path (JSON, YAML or TOML,
// chosen by extension). If path is empty, looks for ./config.{json,yaml,...}.
// A missing file is not an error: defaults apply. Values from a ./.env file
// and GCCONTENT_* environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &c, nil
}
