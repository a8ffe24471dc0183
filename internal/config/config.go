package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/i474232898/date-planner/pkg/logger"
)

type Server struct {
	Port         string        `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"90s"`
	CORSOrigins  string        `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*"`
	// Audio arrives base64 encoded, so the body limit is well above fiber's default.
	BodyLimit int `yaml:"body_limit" env:"SERVER_BODY_LIMIT" env-default:"16777216"`
	// ProxyHeader names the header carrying the client address, such as
	// X-Forwarded-For behind a load balancer. Empty uses the peer address.
	ProxyHeader string `yaml:"proxy_header" env:"SERVER_PROXY_HEADER"`
}

type Model struct {
	Provider string `yaml:"provider" env:"MODEL_PROVIDER" env-default:"gemini"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `yaml:"gemini_model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`
	GeminiBaseURL string `yaml:"gemini_base_url" env:"GEMINI_BASE_URL"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`

	// ProxyURL is the full URL of a model proxy's /api/v1/chat route.
	ProxyURL string `yaml:"proxy_url" env:"MODEL_PROXY_URL"`

	Temperature     float32       `yaml:"temperature" env:"MODEL_TEMPERATURE" env-default:"0.9"`
	TopK            int           `yaml:"top_k" env:"MODEL_TOP_K" env-default:"40"`
	TopP            float32       `yaml:"top_p" env:"MODEL_TOP_P" env-default:"0.95"`
	MaxOutputTokens int           `yaml:"max_output_tokens" env:"MODEL_MAX_OUTPUT_TOKENS" env-default:"1024"`
	Timeout         time.Duration `yaml:"timeout" env:"MODEL_TIMEOUT" env-default:"60s"`
}

type Weather struct {
	WeatherAPIKey     string `env:"WEATHERAPI_API_KEY"`
	WeatherAPIBaseURL string `yaml:"weatherapi_base_url" env:"WEATHERAPI_BASE_URL"`
	ProxyURL          string `yaml:"proxy_url" env:"WEATHER_PROXY_URL"`
	FallbackCity      string `yaml:"fallback_city" env:"WEATHER_FALLBACK_CITY" env-default:"London"`

	// Optional fallbacks tried after the primary source.
	OpenMeteo         bool   `yaml:"open_meteo" env:"WEATHER_OPEN_METEO_FALLBACK" env-default:"false"`
	OpenMeteoBaseURL  string `yaml:"open_meteo_base_url" env:"OPEN_METEO_BASE_URL"`
	OpenWeatherAPIKey string `env:"OPENWEATHER_API_KEY"`
	OpenWeatherURL    string `yaml:"openweather_base_url" env:"OPENWEATHER_BASE_URL"`
}

type Geocoding struct {
	NominatimURL    string        `yaml:"nominatim_url" env:"NOMINATIM_URL"`
	UserAgent       string        `yaml:"user_agent" env:"GEOCODING_USER_AGENT" env-default:"date-planner/1.0"`
	BigDataCloudURL string        `yaml:"bigdatacloud_url" env:"BIGDATACLOUD_URL"`
	GoogleAPIKey    string        `env:"GOOGLE_GEOCODING_API_KEY"`
	IPAPICoURL      string        `yaml:"ipapi_co_url" env:"IPAPI_CO_URL"`
	IPAPIComURL     string        `yaml:"ip_api_com_url" env:"IP_API_COM_URL"`
	DeviceTimeout   time.Duration `yaml:"device_timeout" env:"GPS_TIMEOUT" env-default:"10s"`
}

type Transcription struct {
	GoogleSpeechAPIKey string `env:"GOOGLE_SPEECH_API_KEY"`
	SpeechEndpoint     string `yaml:"speech_endpoint" env:"GOOGLE_SPEECH_ENDPOINT"`
	ProxyURL           string `yaml:"proxy_url" env:"TRANSCRIBE_PROXY_URL"`
}

type Sessions struct {
	Store         string        `yaml:"store" env:"SESSION_STORE" env-default:"memory"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	SQLitePath    string        `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"./data/sessions.db"`
	MaxSessions   int           `yaml:"max_sessions" env:"SESSION_MAX_SESSIONS" env-default:"1000"`
	IdleTTL       time.Duration `yaml:"idle_ttl" env:"SESSION_IDLE_TTL" env-default:"24h"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"10m"`

	// HistoryTokenBudget caps the history sent to the model; 0 sends it all.
	HistoryTokenBudget int    `yaml:"history_token_budget" env:"HISTORY_TOKEN_BUDGET" env-default:"0"`
	TokenEncoding      string `yaml:"token_encoding" env:"HISTORY_TOKEN_ENCODING" env-default:"cl100k_base"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

type AppConfig struct {
	Server        Server        `yaml:"server"`
	Model         Model         `yaml:"model"`
	Weather       Weather       `yaml:"weather"`
	Geocoding     Geocoding     `yaml:"geocoding"`
	Transcription Transcription `yaml:"transcription"`
	Sessions      Sessions      `yaml:"sessions"`
	Log           Log           `yaml:"log"`

	DefaultLanguage string `yaml:"default_language" env:"DEFAULT_LANGUAGE" env-default:"en"`
}

// Load reads configuration from an optional YAML file and the environment.
// Missing API keys are not an error here; the affected features report
// themselves unconfigured when used.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("config: no .env file loaded: %v", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg AppConfig
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Model.Provider {
	case "gemini", "openai":
	case "proxy":
		if c.Model.ProxyURL == "" {
			return fmt.Errorf("MODEL_PROXY_URL is required when MODEL_PROVIDER=proxy")
		}
	default:
		return fmt.Errorf("invalid MODEL_PROVIDER %q: expected gemini, openai or proxy", c.Model.Provider)
	}

	switch c.Sessions.Store {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("invalid SESSION_STORE %q: expected memory, redis or sqlite", c.Sessions.Store)
	}

	if c.Sessions.IdleTTL < 0 {
		return fmt.Errorf("invalid SESSION_IDLE_TTL: must not be negative")
	}
	return nil
}
