package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	JWT        JWTConfig
	Generation GenerationConfig
	R2         R2Config
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
}

type GenerationConfig struct {
	GoogleAPIKey string `mapstructure:"googleApiKey"`
	Model        string `mapstructure:"model"`
	// DailyLimit caps metered generations per key per day. Zero disables
	// enforcement; usage is still recorded.
	DailyLimit int `mapstructure:"dailyLimit"`
}

// R2Config points at an S3-compatible Cloudflare R2 bucket for generated
// images. When incomplete, uploads are skipped and images are returned
// inline as data URLs.
type R2Config struct {
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	// PublicURL is the base under which uploaded objects are reachable
	// (custom domain or the bucket's r2.dev URL). Derived from Endpoint
	// when empty.
	PublicURL string `mapstructure:"publicUrl"`
}

func (c *R2Config) Enabled() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Endpoint != ""
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.readTimeout", 5*time.Second)
	viper.SetDefault("server.writeTimeout", 30*time.Second)
	viper.SetDefault("server.idleTimeout", 120*time.Second)
	viper.SetDefault("server.shutdownPeriod", 15*time.Second)

	viper.SetDefault("database.maxOpenConns", 25)
	viper.SetDefault("database.maxIdleConns", 25)
	viper.SetDefault("database.connMaxLifetime", 5*time.Minute)

	viper.SetDefault("redis.db", "0")

	viper.SetDefault("log.level", "info")

	viper.SetDefault("jwt.accessTokenTTL", 7*24*time.Hour)

	viper.SetDefault("generation.model", "imagen-3.0-generate-002")
	viper.SetDefault("generation.dailyLimit", 0)

	viper.SetDefault("r2.bucket", "nanobanana-images")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AllowEmptyEnv(true)

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
