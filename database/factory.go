package database

import (
	"log"
	"path/filepath"

	"github.com/juridia/legal-assistant-be/config"
)

// NewVectorIndex selects the vector index backend at startup: weaviate when it
// can be reached, otherwise the embedded chromem store. Callers only ever see
// the VectorIndex contract, so the substitution is invisible to retrieval.
func NewVectorIndex(cfg *config.Config) (VectorIndex, error) {
	if cfg.WeaviateStoreConfig.Host != "" {
		store, err := NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err == nil {
			log.Printf("vector index: using weaviate at %s", cfg.WeaviateStoreConfig.Host)
			return store, nil
		}
		log.Printf("vector index: weaviate unavailable (%v), falling back to chromem", err)
	}

	dir := ""
	if cfg.DataDir != "" {
		dir = filepath.Join(cfg.DataDir, "vector_store")
	}
	store, err := NewChromemStore(dir)
	if err != nil {
		return nil, err
	}
	log.Printf("vector index: using embedded chromem store")
	return store, nil
}
