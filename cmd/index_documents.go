/*
Copyright © 2025 juridia
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/juridia/legal-assistant-be/config"
	"github.com/juridia/legal-assistant-be/database"
	"github.com/juridia/legal-assistant-be/service"
	"github.com/juridia/legal-assistant-be/types"
)

// indexDocumentsCmd represents the indexDocuments command
var indexDocumentsCmd = &cobra.Command{
	Use:   "index-documents",
	Short: "Index the legal corpus into the vector store",
	Long: `Walks the legal documents directory, extracts text from each supported
file, chunks it, embeds the chunks and upserts them into the vector index.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.LegalDocsDir
		}
		force, _ := cmd.Flags().GetBool("force")

		vectorIndex, err := database.NewVectorIndex(cfg)
		if err != nil {
			log.Fatalf("Failed to open vector index: %v", err)
		}

		embedder := service.NewOpenAIEmbedder(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.Limits.EmbedConcurrency)
		chunker := service.NewChunker(types.ChunkingConfig{
			ChunkSize: cfg.Chunking.ChunkSize,
			Overlap:   cfg.Chunking.Overlap,
		})
		ingest := service.NewIngestService(service.NewDocumentLoader(), chunker, embedder, vectorIndex, cfg.Limits.EmbedConcurrency)

		total, err := ingest.IndexDocuments(context.Background(), dir, force)
		if err != nil {
			log.Fatalf("Indexing failed: %v", err)
		}
		log.Printf("Indexed %d chunks from %s", total, dir)
	},
}

func init() {
	rootCmd.AddCommand(indexDocumentsCmd)
	indexDocumentsCmd.Flags().StringP("dir", "d", "", "directory to index (defaults to legal_docs_dir from config)")
	indexDocumentsCmd.Flags().BoolP("force", "f", false, "clear previously indexed vectors for each source before indexing")
}
