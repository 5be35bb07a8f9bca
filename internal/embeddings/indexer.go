package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"

	"github.com/capitolwatch/capitolwatch/internal/ingest"
	"github.com/capitolwatch/capitolwatch/internal/store"
	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
	"github.com/capitolwatch/capitolwatch/pkg/models"
)

// indexerStore is the slice of the store the indexer needs.
type indexerStore interface {
	BillsNeedingEmbeddings(ctx context.Context, congress int) ([]models.Bill, error)
	SetBillEmbedding(ctx context.Context, billID string, vector []float32, hash string) error
}

// Indexer is the ingestion job that keeps bill embeddings current. It runs
// as a separate job so embedding outages never mark the bills job failed.
type Indexer struct {
	embedder Embedder
	store    indexerStore
}

// NewIndexer builds the embeddings job.
func NewIndexer(embedder Embedder, st indexerStore) *Indexer {
	return &Indexer{embedder: embedder, store: st}
}

// ID implements ingest.Ingester.
func (ix *Indexer) ID() string { return "embeddings" }

// Dependencies implements ingest.Ingester.
func (ix *Indexer) Dependencies() []string { return []string{"bills"} }

// Slow implements ingest.Ingester.
func (ix *Indexer) Slow() bool { return true }

// Run implements ingest.Ingester. Bills whose stored hash matches their
// current content count as unchanged; everything else is embedded and the
// vector written back with the hash it was computed from.
func (ix *Indexer) Run(ctx context.Context, rc ingest.RunContext) (*ingest.RunStats, error) {
	bills, err := ix.store.BillsNeedingEmbeddings(ctx, rc.Congress)
	if err != nil {
		return nil, errors.NewIngestError(ix.ID(), "listing bills", err)
	}

	stats := ingest.NewRunStats(ix.ID())
	for _, bill := range bills {
		if err := ctx.Err(); err != nil {
			stats.Finish()
			return stats, errors.NewIngestError(ix.ID(), "", err)
		}
		if rc.Limit > 0 && stats.Processed >= rc.Limit {
			break
		}

		text := EmbeddingInput(&bill)
		if text == "" {
			stats.Fail(bill.BillID, errors.NewValidationError("text", bill.BillID, "nothing to embed"))
			continue
		}

		hash := ContentHash(text)
		if hash == bill.EmbeddingHash {
			stats.Record(store.OutcomeUnchanged)
			continue
		}

		vector, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			if errors.IsRetryable(err) {
				// The embedding service is down; give up on the run
				// rather than burning the whole candidate list.
				stats.Finish()
				return stats, errors.NewIngestError(ix.ID(), "embedding service unavailable", err)
			}
			stats.Fail(bill.BillID, err)
			continue
		}

		if err := ix.store.SetBillEmbedding(ctx, bill.BillID, vector, hash); err != nil {
			if errors.IsNotFound(err) {
				stats.Fail(bill.BillID, err)
				continue
			}
			stats.Finish()
			return stats, errors.NewIngestError(ix.ID(), "writing embedding", err)
		}

		if bill.EmbeddingHash == "" {
			stats.Record(store.OutcomeCreated)
		} else {
			stats.Record(store.OutcomeUpdated)
		}
	}
	stats.Finish()
	return stats, nil
}

// EmbeddingInput is the text embedded for a bill, truncated to the model's
// useful input size. The cut backs up to a rune boundary so the service
// never receives a split UTF-8 sequence.
func EmbeddingInput(b *models.Bill) string {
	text := b.EmbeddingText()
	if len(text) > constants.MaxEmbeddingChars {
		cut := constants.MaxEmbeddingChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

// ContentHash fingerprints embedding input. Stored next to the vector so a
// re-run can tell stale vectors from current ones without calling the
// embedding service.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
