// Package config holds the application configuration. Components receive an
// explicit Config (or the fields they need) through their constructors; there
// is no process-wide mutable settings object.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config is loaded from an optional YAML file and then overridden by
// environment variables. Zero values are replaced by defaults.
type Config struct {
	// Data layout
	RawDataDir string `yaml:"raw_data_dir"` // downloaded filings ({TICKER}_10K_{date}.txt + _meta.json)
	BatchDir   string `yaml:"batch_dir"`    // serialized passage batches from pipeline runs

	// Chunking
	ChunkSize       int `yaml:"chunk_size"`
	ChunkOverlap    int `yaml:"chunk_overlap"`
	MinSectionChars int `yaml:"min_section_chars"`

	// Retrieval
	RetrievalK int `yaml:"retrieval_k"`

	// Models
	GenerationModel string `yaml:"generation_model"`
	EmbeddingModel  string `yaml:"embedding_model"`

	// Vector index (Qdrant). Empty URL selects the in-memory store.
	QdrantURL        string `yaml:"qdrant_url"`
	QdrantAPIKey     string `yaml:"qdrant_api_key"`
	QdrantCollection string `yaml:"qdrant_collection"`

	// SEC EDGAR requires a descriptive User-Agent with contact info.
	EdgarIdentity string `yaml:"edgar_identity"`

	// API server
	Port int `yaml:"port"`
}

// Load reads the config file at path (missing file is not an error), applies
// defaults and environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// Default returns the default configuration without touching the filesystem.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.RawDataDir == "" {
		cfg.RawDataDir = "data/raw"
	}
	if cfg.BatchDir == "" {
		cfg.BatchDir = "data/processed"
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 300
	}
	if cfg.MinSectionChars == 0 {
		cfg.MinSectionChars = 500
	}
	if cfg.RetrievalK == 0 {
		cfg.RetrievalK = 6
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gemini-2.0-flash-exp"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-004"
	}
	if cfg.QdrantCollection == "" {
		cfg.QdrantCollection = "sec_filings"
	}
	if cfg.EdgarIdentity == "" {
		cfg.EdgarIdentity = "asksec/1.0 (contact@example.com)"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.RawDataDir, "RAW_DATA_DIR")
	setString(&cfg.BatchDir, "BATCH_DIR")
	setInt(&cfg.ChunkSize, "CHUNK_SIZE")
	setInt(&cfg.ChunkOverlap, "CHUNK_OVERLAP")
	setInt(&cfg.RetrievalK, "RETRIEVAL_K")
	setString(&cfg.GenerationModel, "GENERATION_MODEL")
	setString(&cfg.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&cfg.QdrantURL, "QDRANT_URL")
	setString(&cfg.QdrantAPIKey, "QDRANT_API_KEY")
	setString(&cfg.QdrantCollection, "QDRANT_COLLECTION")
	setString(&cfg.EdgarIdentity, "EDGAR_IDENTITY")
	setInt(&cfg.Port, "PORT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
