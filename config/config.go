package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Server configuration
	Server struct {
		Port     string `env:"SERVER_PORT" envDefault:"5250"`
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

		// Origins allowed by CORS, comma separated
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	// Trades configures the MOLIT apartment transaction API
	Trades struct {
		ServiceKey string        `env:"DATAPORTAL"`
		BaseURL    string        `env:"TRADE_API_URL" envDefault:"https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade/getRTMSDataSvcAptTrade"`
		PageSize   int           `env:"TRADE_PAGE_SIZE" envDefault:"1000"`
		Timeout    time.Duration `env:"TRADE_TIMEOUT" envDefault:"10s"`

		// Minimum spacing between two month fetches
		MonthDelay time.Duration `env:"TRADE_MONTH_DELAY" envDefault:"300ms"`

		// Number of months fetched concurrently, 1 keeps the sequential behaviour
		Workers int `env:"TRADE_WORKERS" envDefault:"1"`
	}

	// Geocoding configures the VWorld (primary) and Kakao (fallback) providers
	Geocoding struct {
		VWorldKey   string        `env:"V_World_API"`
		VWorldURL   string        `env:"VWORLD_API_URL" envDefault:"https://api.vworld.kr/req/address"`
		KakaoKey    string        `env:"JHRERSTAPI"`
		KakaoURL    string        `env:"KAKAO_API_URL" envDefault:"https://dapi.kakao.com/v2/local/search/address.json"`
		Timeout     time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"5s"`
		MinInterval time.Duration `env:"GEOCODE_MIN_INTERVAL" envDefault:"50ms"`
		Workers     int           `env:"GEOCODE_WORKERS" envDefault:"4"`
	}

	// Datasets configures how query results are kept for the views
	Datasets struct {
		// Number of recent query datasets kept in memory
		Retention int `env:"DATASET_RETENTION" envDefault:"16"`

		// Maximum number of markers geocoded for the map view
		MapMarkerLimit int `env:"MAP_MARKER_LIMIT" envDefault:"100"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
