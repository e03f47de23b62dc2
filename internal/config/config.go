package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	DB        DBConfig        `mapstructure:"db"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Credits   CreditsConfig   `mapstructure:"credits"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

type DBConfig struct {
	Source         string `mapstructure:"source"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Root           string   `mapstructure:"root"`
	TempDir        string   `mapstructure:"temp_dir"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	AllowedTypes   []string `mapstructure:"allowed_types"`
}

type ExtractorConfig struct {
	MaxPages int `mapstructure:"max_pages"`
}

type AnalyzerConfig struct {
	ProjectID   string        `mapstructure:"project_id"`
	Region      string        `mapstructure:"region"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	StatsTTL time.Duration `mapstructure:"stats_ttl"`
}

type CreditsConfig struct {
	FreeInitial int `mapstructure:"free_initial"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log.level", "info")

	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 90*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("http.rate_limit", 2.0)
	v.SetDefault("http.rate_burst", 5)

	v.SetDefault("db.source", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.migrations_path", "./db/migrations")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("storage.root", "./data")
	v.SetDefault("storage.temp_dir", "./uploads")
	v.SetDefault("storage.max_upload_bytes", 5<<20)
	v.SetDefault("storage.allowed_types", []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})

	v.SetDefault("extractor.max_pages", 20)

	v.SetDefault("analyzer.project_id", "")
	v.SetDefault("analyzer.region", "us-central1")
	v.SetDefault("analyzer.model", "gemini-2.5-flash")
	v.SetDefault("analyzer.timeout", 60*time.Second)
	v.SetDefault("analyzer.temperature", 0.2)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stats_ttl", 5*time.Minute)

	v.SetDefault("credits.free_initial", 3)
}

func Load() (*Config, error) {
	return load(viper.New(), "./configs", "/configs")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
