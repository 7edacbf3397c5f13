package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Model     ModelConfig     `mapstructure:"model"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Doubao    DoubaoConfig    `mapstructure:"doubao"`
	Qwen      QwenConfig      `mapstructure:"qwen"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Docent    DocentConfig    `mapstructure:"docent"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Gallery   GalleryConfig   `mapstructure:"gallery"`
	Auth      AuthConfig      `mapstructure:"auth"`
	MCP       MCPConfig       `mapstructure:"mcp"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// ModelConfig selects which upstream completion service answers docent questions.
type ModelConfig struct {
	Provider string `mapstructure:"provider"` // openai | doubao | qwen | gemini
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DoubaoConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type QwenConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	TopP         float32       `mapstructure:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DebugRequest bool          `mapstructure:"debug_request"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type DocentConfig struct {
	SystemPrompt     string  `mapstructure:"system_prompt"`
	StructuredPrompt string  `mapstructure:"structured_prompt"`
	OutputMode       string  `mapstructure:"output_mode"` // delimiter | structured
	MaxTokens        int     `mapstructure:"max_tokens"`
	Temperature      float32 `mapstructure:"temperature"`

	// AccessKey, when set, must be presented in the X-Docent-Key header.
	AccessKey string `mapstructure:"access_key"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	Burst             int    `mapstructure:"burst"`
	Backend           string `mapstructure:"backend"` // memory | redis
	RedisURL          string `mapstructure:"redis_url"`
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // memory | sqlite
	Path      string `mapstructure:"path"`
	MediaDir  string `mapstructure:"media_dir"`
	MediaBase string `mapstructure:"media_base"`
}

type GalleryConfig struct {
	PageSize        int   `mapstructure:"page_size"`
	MaxPageSize     int   `mapstructure:"max_page_size"`
	HistoryPageSize int   `mapstructure:"history_page_size"`
	ImageMaxWidth   int   `mapstructure:"image_max_width"`
	ImageMaxHeight  int   `mapstructure:"image_max_height"`
	ImageMaxPixels  int64 `mapstructure:"image_max_pixels"`
	JPEGQuality     int   `mapstructure:"jpeg_quality"`
	MaxUploadBytes  int64 `mapstructure:"max_upload_bytes"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Admins    []AdminSeed   `mapstructure:"admins"`
}

// AdminSeed is an administrator account created at startup. PasswordHash is a bcrypt hash.
type AdminSeed struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

type MCPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var cfg *Config

// Load reads configPath (YAML) on top of the built-in defaults. An empty path
// loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOCENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Values from the config file win; the well-known provider env vars only fill gaps.
	fillFromEnv(&loaded.OpenAI.APIKey, "OPENAI_API_KEY")
	fillFromEnv(&loaded.Doubao.APIKey, "DOUBAO_API_KEY", "ARK_API_KEY")
	fillFromEnv(&loaded.Qwen.APIKey, "DASHSCOPE_API_KEY")
	fillFromEnv(&loaded.Gemini.APIKey, "GEMINI_API_KEY")
	fillFromEnv(&loaded.Auth.JWTSecret, "JWT_SECRET")

	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	cfg = loaded
	return cfg, nil
}

func Get() *Config {
	return cfg
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "openai", "doubao", "qwen", "gemini":
	default:
		return fmt.Errorf("unsupported model provider: %q", c.Model.Provider)
	}
	switch c.Docent.OutputMode {
	case "delimiter", "structured":
	default:
		return fmt.Errorf("unsupported docent output mode: %q", c.Docent.OutputMode)
	}
	switch c.Storage.Type {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	if c.Docent.MaxTokens <= 0 {
		return fmt.Errorf("docent.max_tokens must be positive")
	}
	if c.Docent.Temperature <= 0 {
		return fmt.Errorf("docent.temperature must be positive")
	}
	if len(c.Auth.Admins) > 0 && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when admins are configured")
	}
	if c.RateLimit.Enabled && c.RateLimit.Backend == "redis" && c.RateLimit.RedisURL == "" {
		return fmt.Errorf("rate_limit.redis_url is required for the redis backend")
	}
	return nil
}

func fillFromEnv(dst *string, keys ...string) {
	if *dst != "" {
		return
	}
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*dst = val
			return
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("model.provider", "openai")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("doubao.model", "doubao-seed-1-6-250615")
	v.SetDefault("qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("qwen.model", "qwen-plus")
	v.SetDefault("qwen.top_p", 0.9)
	v.SetDefault("qwen.timeout", 60*time.Second)
	v.SetDefault("gemini.model", "gemini-1.5-flash")

	v.SetDefault("docent.system_prompt", DefaultSystemPrompt)
	v.SetDefault("docent.structured_prompt", DefaultStructuredPrompt)
	v.SetDefault("docent.output_mode", "delimiter")
	v.SetDefault("docent.max_tokens", 500)
	v.SetDefault("docent.temperature", 0.7)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Docent-Key"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 20)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("rate_limit.backend", "memory")

	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.path", "./data/gallery.db")
	v.SetDefault("storage.media_dir", "./data/media")
	v.SetDefault("storage.media_base", "/media")

	v.SetDefault("gallery.page_size", 9)
	v.SetDefault("gallery.max_page_size", 50)
	v.SetDefault("gallery.history_page_size", 5)
	v.SetDefault("gallery.image_max_width", 1000)
	v.SetDefault("gallery.image_max_height", 1000)
	v.SetDefault("gallery.image_max_pixels", 40_000_000)
	v.SetDefault("gallery.jpeg_quality", 80)
	v.SetDefault("gallery.max_upload_bytes", 10<<20)

	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("mcp.enabled", false)
	v.SetDefault("mcp.path", "/mcp")
}
