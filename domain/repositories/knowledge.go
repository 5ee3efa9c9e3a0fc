package repositories

import (
	"context"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

// KnowledgeStore is a read-only view over a user's persisted knowledge items:
// Q&A pairs and STAR stories, each carrying a precomputed similarity vector.
// Writes happen in the out-of-scope CRUD layer; updates are eventually
// visible, not transactionally consistent with an in-flight session.
type KnowledgeStore interface {
	// ListByUser returns all knowledge items for a user.
	ListByUser(ctx context.Context, userID string) ([]entities.KnowledgeItem, error)

	// SearchNearest returns up to limit items for the user ordered by
	// descending cosine similarity to the query vector.
	SearchNearest(ctx context.Context, userID string, vector []float32, limit int) ([]ScoredItem, error)

	// TouchUsage bumps the usage counter of an item that served a cache hit.
	TouchUsage(ctx context.Context, itemID string) error
}

// ScoredItem pairs a knowledge item with its similarity to a query.
type ScoredItem struct {
	Item       entities.KnowledgeItem
	Similarity float64
}
