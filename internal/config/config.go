package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"ai-study-assistant-be/pkg/llm/factory"
	"ai-study-assistant-be/pkg/rag/dedup"
	"ai-study-assistant-be/pkg/rag/executor"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/rag/selector"
	"ai-study-assistant-be/pkg/store"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
	Synthesis SynthesisConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsEnabled        bool
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
	Debug      bool
}

type StoreConfig struct {
	Driver string // "memory", "redis" or "postgres"
	TTL    time.Duration
}

type AIConfig struct {
	Primary     factory.ProviderConfig
	Secondary   factory.ProviderConfig
	CallTimeout time.Duration
}

type RetrievalConfig struct {
	MaxChars            int
	DedupThreshold      float64
	NoiseFloorChars     int
	ColdStartCount      int
	PrimaryMultiplier   float64
	SecondaryMultiplier float64
	KindWeights         map[store.Kind]float64
	StopWords           []string
	ProfilePath         string
}

type SynthesisConfig struct {
	ChunkChars int
	Workers    int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsEnabled:        getEnvAsBool("NATS_ENABLED", false),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Debug:      getEnvAsBool("DB_DEBUG", false),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", "memory")),
			TTL:    time.Duration(getEnvAsInt("STORE_TTL_HOURS", 24)) * time.Hour,
		},
		Ai: AIConfig{
			Primary: factory.ProviderConfig{
				Type:    getEnv("AI_PRIMARY_PROVIDER", "ollama"),
				Model:   getEnv("AI_PRIMARY_MODEL", "llama3"),
				BaseURL: getEnv("AI_PRIMARY_BASE_URL", "http://localhost:11434"),
				APIKey:  getEnv("AI_PRIMARY_API_KEY", ""),
			},
			Secondary: factory.ProviderConfig{
				Type:    getEnv("AI_SECONDARY_PROVIDER", ""),
				Model:   getEnv("AI_SECONDARY_MODEL", ""),
				BaseURL: getEnv("AI_SECONDARY_BASE_URL", ""),
				APIKey:  getEnv("AI_SECONDARY_API_KEY", ""),
			},
			CallTimeout: time.Duration(getEnvAsInt("AI_CALL_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Retrieval: RetrievalConfig{
			MaxChars:            getEnvAsInt("RETRIEVAL_MAX_CHARS", selector.DefaultMaxChars),
			DedupThreshold:      getEnvAsFloat("RETRIEVAL_DEDUP_THRESHOLD", dedup.DefaultThreshold),
			NoiseFloorChars:     getEnvAsInt("RETRIEVAL_NOISE_FLOOR_CHARS", selector.DefaultNoiseFloorChars),
			ColdStartCount:      getEnvAsInt("RETRIEVAL_COLD_START_COUNT", selector.DefaultColdStartCount),
			PrimaryMultiplier:   getEnvAsFloat("RETRIEVAL_PRIMARY_MULTIPLIER", 3),
			SecondaryMultiplier: getEnvAsFloat("RETRIEVAL_SECONDARY_MULTIPLIER", 1),
			KindWeights: map[store.Kind]float64{
				store.KindNote:         getEnvAsFloat("RETRIEVAL_NOTE_WEIGHT", 1.5),
				store.KindConversation: getEnvAsFloat("RETRIEVAL_CONVERSATION_WEIGHT", 1),
				store.KindAchievement:  getEnvAsFloat("RETRIEVAL_ACHIEVEMENT_WEIGHT", 1),
				store.KindParagraph:    getEnvAsFloat("RETRIEVAL_PARAGRAPH_WEIGHT", 1),
			},
			StopWords:   scoring.DefaultStopWords,
			ProfilePath: getEnv("RETRIEVAL_PROFILE_PATH", ""),
		},
		Synthesis: SynthesisConfig{
			ChunkChars: getEnvAsInt("SYNTHESIS_CHUNK_CHARS", executor.DefaultChunkChars),
			Workers:    getEnvAsInt("SYNTHESIS_WORKERS", executor.DefaultWorkers),
		},
	}

	if path := cfg.Retrieval.ProfilePath; path != "" {
		profile, err := LoadRetrievalProfile(path)
		if err != nil {
			log.Printf("Warning: retrieval profile %s ignored: %v", path, err)
		} else {
			profile.Apply(&cfg.Retrieval)
		}
	}

	return cfg
}

func (r RetrievalConfig) Weights() scoring.Weights {
	kinds := make(map[store.Kind]float64, len(r.KindWeights))
	for k, v := range r.KindWeights {
		kinds[k] = v
	}
	return scoring.Weights{Primary: r.PrimaryMultiplier, Secondary: r.SecondaryMultiplier, Kind: kinds}
}

func (r RetrievalConfig) Selector() selector.Config {
	return selector.Config{
		Budget:          store.ContextBudget{MaxChars: r.MaxChars},
		DedupThreshold:  r.DedupThreshold,
		NoiseFloorChars: r.NoiseFloorChars,
		ColdStartCount:  r.ColdStartCount,
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
