package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Assets   AssetsConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AssetsConfig locates the per-dealer model bundles. When Bucket is set,
// bundles are pulled from S3-compatible storage into Dir before loading;
// otherwise Dir is read as-is.
type AssetsConfig struct {
	Dir       string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

type ForecastConfig struct {
	HorizonDays int
	Workers     int
	ExportDir   string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "partsdb")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("ASSETS_DIR", "./data/models")
		viper.SetDefault("ASSETS_BUCKET", "")
		viper.SetDefault("ASSETS_ENDPOINT", "")
		viper.SetDefault("ASSETS_REGION", "us-east-1")
		viper.SetDefault("ASSETS_USE_SSL", true)
		viper.SetDefault("FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_WORKERS", 0)
		viper.SetDefault("FORECAST_EXPORT_DIR", "./data/output")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure asset and export directories exist
		ensureDir(viper.GetString("ASSETS_DIR"))
		ensureDir(viper.GetString("FORECAST_EXPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Assets: AssetsConfig{
				Dir:       viper.GetString("ASSETS_DIR"),
				Bucket:    viper.GetString("ASSETS_BUCKET"),
				Endpoint:  viper.GetString("ASSETS_ENDPOINT"),
				AccessKey: viper.GetString("ASSETS_ACCESS_KEY"),
				SecretKey: viper.GetString("ASSETS_SECRET_KEY"),
				Region:    viper.GetString("ASSETS_REGION"),
				UseSSL:    viper.GetBool("ASSETS_USE_SSL"),
			},
			Forecast: ForecastConfig{
				HorizonDays: viper.GetInt("FORECAST_HORIZON_DAYS"),
				Workers:     viper.GetInt("FORECAST_WORKERS"),
				ExportDir:   viper.GetString("FORECAST_EXPORT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
