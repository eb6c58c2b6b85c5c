package shared

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	SiteURL     string

	StoreDriver   string
	MySQLDSN      string
	DatabaseURL   string
	PostgRESTURL  string
	PostgRESTKey  string
	PostgRESTRPS  int
	DBMaxConns    int
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration

	PageSize          int
	TopRatedMinRating float64
	TopRatedOverFetch int
	ImportChunkSize   int
	BackfillWorkers   int
	BackfillRPS       int
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("app_env", "prod")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("site_url", "https://hazardsdirectory.example")
	v.SetDefault("store_driver", "mysql")
	v.SetDefault("mysql_dsn", "root:root@tcp(localhost:3306)/hazards?parseTime=true&charset=utf8mb4,utf8&loc=UTC")
	v.SetDefault("database_url", "")
	v.SetDefault("postgrest_url", "")
	v.SetDefault("postgrest_key", "")
	v.SetDefault("postgrest_rps", 10)
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_password", "")
	v.SetDefault("cache_ttl_seconds", 900)
	v.SetDefault("page_size", 24)
	v.SetDefault("top_rated_min_rating", 4.0)
	v.SetDefault("top_rated_overfetch", 2)
	v.SetDefault("import_chunk_size", 100)
	v.SetDefault("backfill_workers", 8)
	v.SetDefault("backfill_rps", 20)
	return v
}

func fromViper(v *viper.Viper) Config {
	c := Config{
		AppEnv:            v.GetString("app_env"),
		LogLevel:          v.GetString("log_level"),
		HTTPAddr:          v.GetString("http_addr"),
		MetricsAddr:       v.GetString("metrics_addr"),
		SiteURL:           v.GetString("site_url"),
		StoreDriver:       v.GetString("store_driver"),
		MySQLDSN:          v.GetString("mysql_dsn"),
		DatabaseURL:       v.GetString("database_url"),
		PostgRESTURL:      v.GetString("postgrest_url"),
		PostgRESTKey:      v.GetString("postgrest_key"),
		PostgRESTRPS:      v.GetInt("postgrest_rps"),
		DBMaxConns:        v.GetInt("db_max_conns"),
		RedisAddr:         v.GetString("redis_addr"),
		RedisDB:           v.GetInt("redis_db"),
		RedisPass:         v.GetString("redis_password"),
		CacheTTL:          time.Duration(v.GetInt("cache_ttl_seconds")) * time.Second,
		PageSize:          v.GetInt("page_size"),
		TopRatedMinRating: v.GetFloat64("top_rated_min_rating"),
		TopRatedOverFetch: v.GetInt("top_rated_overfetch"),
		ImportChunkSize:   v.GetInt("import_chunk_size"),
		BackfillWorkers:   v.GetInt("backfill_workers"),
		BackfillRPS:       v.GetInt("backfill_rps"),
	}
	if c.PageSize <= 0 {
		c.PageSize = 24
	}
	if c.ImportChunkSize <= 0 {
		c.ImportChunkSize = 100
	}
	if c.StoreDriver == "postgrest" && c.PostgRESTKey == "" {
		log.Warn().Msg("POSTGREST_KEY is empty")
	}
	return c
}
