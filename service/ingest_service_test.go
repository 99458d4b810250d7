package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juridia/legal-assistant-be/types"
)

func TestIndexDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "bail.txt"),
		[]byte(strings.Repeat("Le bail est conclu pour une durée de neuf années. ", 10)),
		0o644,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "notes.md"),
		[]byte("Une note brève."),
		0o644,
	))
	// Unsupported files are ignored, not errors.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89}, 0o644))

	index := &fakeIndex{}
	chunker := NewChunker(types.ChunkingConfig{ChunkSize: 120, Overlap: 20})
	svc := NewIngestService(NewDocumentLoader(), chunker, &fakeEmbedder{vector: []float32{1, 0}}, index, 2)

	total, err := svc.IndexDocuments(context.Background(), dir, false)

	require.NoError(t, err)
	assert.Greater(t, total, 2)
	assert.Len(t, index.upserted, total)

	sources := make(map[string]bool)
	for _, rec := range index.upserted {
		sources[rec.Source] = true
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.Content)
	}
	assert.Equal(t, map[string]bool{"bail.txt": true, "notes.md": true}, sources)
}

func TestIndexDocumentsChunkIDsStable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "statuts.txt"),
		[]byte(strings.Repeat("L'assemblée générale délibère valablement. ", 8)),
		0o644,
	))

	index := &fakeIndex{}
	chunker := NewChunker(types.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	svc := NewIngestService(NewDocumentLoader(), chunker, &fakeEmbedder{vector: []float32{1, 0}}, index, 2)

	_, err := svc.IndexDocuments(context.Background(), dir, false)
	require.NoError(t, err)

	require.NotEmpty(t, index.upserted)
	assert.Equal(t, "statuts.txt:0", index.upserted[0].ID)
	assert.Equal(t, "statuts", index.upserted[0].Title)
}

func TestIndexDocumentsEmbedderDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bail.txt"), []byte("Texte."), 0o644))

	index := &fakeIndex{}
	svc := NewIngestService(NewDocumentLoader(), NewChunker(types.ChunkingConfig{}), &fakeEmbedder{err: types.ErrProviderUnavailable}, index, 2)

	// A failing file is skipped; the run itself completes.
	total, err := svc.IndexDocuments(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, index.upserted)
}
