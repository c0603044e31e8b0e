package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default agent persona and welcome line. Operators override these via env
// to change the concierge's voice without a rebuild.
const (
	defaultInstructions = "You are Nova, the hotel room concierge. You help guests with: WiFi password, extra towels, room service, requests, feedback, and complaints. When introducing yourself or when guests ask, you are called Nova. Greet the guest by their first name. Stay on topic; do not discuss unrelated matters. Use the provided tools to log requests or complaints and to get WiFi info. Be brief and friendly."

	defaultWelcomeMessage = "Hi, (Guest's first name) I'm Nova, your room concierge. How can I help you today?"

	defaultRealtimeURL   = "wss://api.openai.com/v1/realtime"
	defaultRealtimeModel = "gpt-4o-mini-realtime-preview-2024-12-17"
	defaultVoice         = "ash"

	defaultTurnThreshold = 0.7
	defaultTurnPrefixMs  = 300
	defaultTurnSilenceMs = 500

	defaultMemoryContextLimit = 10
	defaultUpstreamTimeout    = 15 * time.Second

	defaultWifiName     = "Hotel-Guest"
	defaultWifiPassword = "welcome123"

	defaultManagerPassword = "hotel-staff"
)

// Config holds all process configuration, loaded once at startup.
type Config struct {
	Port string

	// Upstream realtime AI service
	OpenAIAPIKey    string
	RealtimeURL     string
	RealtimeModel   string
	Voice           string
	InputLanguage   string
	TurnThreshold   float64
	TurnPrefixMs    int
	TurnSilenceMs   int
	UpstreamTimeout time.Duration

	// Agent behavior
	Instructions       string
	WelcomeMessage     string
	MemoryContextLimit int

	// Hotel facts surfaced by tools
	WifiName     string
	WifiPassword string

	// Manager dashboard auth
	ManagerPassword string
	JWTSecret       string

	// Storage
	MongoURI      string
	MongoDatabase string

	// Memory service
	MemoryAPIKey  string
	MemoryAPIBase string
}

// Load reads configuration from environment variables, applying defaults
// where values are absent.
func Load() Config {
	cfg := Config{
		Port:               envOr("PORT", "8080"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		RealtimeURL:        envOr("OPENAI_REALTIME_URL", defaultRealtimeURL),
		RealtimeModel:      envOr("REALTIME_MODEL", defaultRealtimeModel),
		Voice:              envOr("REALTIME_VOICE", defaultVoice),
		InputLanguage:      os.Getenv("REALTIME_INPUT_LANGUAGE"),
		TurnThreshold:      envFloatOr("REALTIME_TURN_THRESHOLD", defaultTurnThreshold),
		TurnPrefixMs:       envIntOr("REALTIME_TURN_PREFIX_MS", defaultTurnPrefixMs),
		TurnSilenceMs:      envIntOr("REALTIME_TURN_SILENCE_MS", defaultTurnSilenceMs),
		UpstreamTimeout:    envDurationOr("REALTIME_UPSTREAM_TIMEOUT", defaultUpstreamTimeout),
		Instructions:       envOr("AGENT_INSTRUCTIONS", defaultInstructions),
		WelcomeMessage:     envOr("AGENT_WELCOME_MESSAGE", defaultWelcomeMessage),
		MemoryContextLimit: envIntOr("MEMORY_CONTEXT_LIMIT", defaultMemoryContextLimit),
		WifiName:           envOr("HOTEL_WIFI_NAME", defaultWifiName),
		WifiPassword:       envOr("HOTEL_WIFI_PASSWORD", defaultWifiPassword),
		ManagerPassword:    envOr("MANAGER_PASSWORD", defaultManagerPassword),
		JWTSecret:          envOr("JWT_SECRET", "change-me"),
		MongoURI:           envOr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      envOr("MONGODB_DATABASE", "concierge"),
		MemoryAPIKey:       os.Getenv("BACKBOARD_API_KEY"),
		MemoryAPIBase:      envOr("BACKBOARD_API_BASE", "https://app.backboard.io/api"),
	}
	return cfg
}

// Validate checks ranges on the tunable values. A missing OpenAI key is not
// an error here: the relay reports it per-connection so operators see a
// configuration-error frame instead of a dead process.
func (c Config) Validate() error {
	if c.TurnThreshold < 0 || c.TurnThreshold > 1 {
		return fmt.Errorf("turn threshold must be between 0 and 1, got %f", c.TurnThreshold)
	}
	if c.TurnPrefixMs < 0 {
		return fmt.Errorf("turn prefix padding must be non-negative, got %d", c.TurnPrefixMs)
	}
	if c.TurnSilenceMs < 0 {
		return fmt.Errorf("turn silence duration must be non-negative, got %d", c.TurnSilenceMs)
	}
	if c.MemoryContextLimit < 1 {
		return fmt.Errorf("memory context limit must be at least 1, got %d", c.MemoryContextLimit)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
