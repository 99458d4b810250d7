package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string              `mapstructure:"port"`
	AIEndpoint          string              `mapstructure:"ai_endpoint"`
	Model               string              `mapstructure:"model"`
	EmbeddingModel      string              `mapstructure:"embedding_model"`
	OpenAIAPIKey        string              `mapstructure:"OPENAI_API_KEY"`
	MongoURI            string              `mapstructure:"MONGODB_URI"`
	LegalDocsDir        string              `mapstructure:"legal_docs_dir"`
	DataDir             string              `mapstructure:"data_dir"`
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	Chunking            ChunkingConfig      `mapstructure:"chunking"`
	Retrieval           RetrievalConfig     `mapstructure:"retrieval"`
	Prompt              PromptConfig        `mapstructure:"prompt"`
	Cache               CacheConfig         `mapstructure:"cache"`
	Limits              LimitsConfig        `mapstructure:"limits"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

type ChunkingConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	Overlap   int `mapstructure:"overlap"`
}

type RetrievalConfig struct {
	TopK           int     `mapstructure:"top_k"`
	Threshold      float64 `mapstructure:"threshold"`
	EvidenceBudget int     `mapstructure:"evidence_budget"`
}

type PromptConfig struct {
	MaxChars     int `mapstructure:"max_chars"`
	HistoryTurns int `mapstructure:"history_turns"`
}

type CacheConfig struct {
	Capacity     int `mapstructure:"capacity"`
	TTLSeconds   int `mapstructure:"ttl_seconds"`
	SweepSeconds int `mapstructure:"sweep_seconds"`
}

type LimitsConfig struct {
	EmbedConcurrency       int `mapstructure:"embed_concurrency"`
	ChatConcurrency        int `mapstructure:"chat_concurrency"`
	MetadataWorkers        int `mapstructure:"metadata_workers"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds"`
	MetadataTimeoutSeconds int `mapstructure:"metadata_timeout_seconds"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables for secrets
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("MONGODB_URI")
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("model", "mistral-large-latest")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("legal_docs_dir", "data/legal_docs")
	v.SetDefault("data_dir", "data")
	v.SetDefault("chunking.chunk_size", 1000)
	v.SetDefault("chunking.overlap", 200)
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.threshold", 0.25)
	v.SetDefault("retrieval.evidence_budget", 6000)
	v.SetDefault("prompt.max_chars", 12000)
	v.SetDefault("prompt.history_turns", 5)
	v.SetDefault("cache.capacity", 1000)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.sweep_seconds", 60)
	v.SetDefault("limits.embed_concurrency", 8)
	v.SetDefault("limits.chat_concurrency", 16)
	v.SetDefault("limits.metadata_workers", 4)
	v.SetDefault("limits.request_timeout_seconds", 60)
	v.SetDefault("limits.metadata_timeout_seconds", 20)
}
