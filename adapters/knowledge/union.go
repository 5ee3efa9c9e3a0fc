package knowledge

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// UnionStore searches context-loaded items and the persistent store as one
// knowledge base. Items arriving over the session channel carry no
// embeddings, so Load embeds them before they become searchable.
type UnionStore struct {
	memory   *MemoryStore
	backing  repositories.KnowledgeStore // may be nil
	embedder repositories.Embedder
	logger   *zap.Logger
}

func NewUnionStore(backing repositories.KnowledgeStore, embedder repositories.Embedder, logger *zap.Logger) *UnionStore {
	return &UnionStore{
		memory:   NewMemoryStore(),
		backing:  backing,
		embedder: embedder,
		logger:   logger,
	}
}

// Load embeds and stores context-message items for a user. It returns only
// once the items are searchable, so a caller may acknowledge the load and
// serve matches against it immediately after. Items whose embedding fails
// are kept but will not score in searches.
func (s *UnionStore) Load(ctx context.Context, userID string, items []entities.KnowledgeItem) error {
	cpy := make([]entities.KnowledgeItem, len(items))
	copy(cpy, items)

	for i := range cpy {
		if len(cpy[i].Embedding) > 0 || cpy[i].Question == "" {
			continue
		}
		vector, err := s.embedder.Embed(ctx, cpy[i].Question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("Failed to embed context item",
				zap.String("userID", userID),
				zap.Error(err))
			continue
		}
		cpy[i].Embedding = vector
	}
	s.memory.Load(userID, cpy)
	s.logger.Info("Context items loaded", zap.String("userID", userID), zap.Int("items", len(cpy)))
	return nil
}

func (s *UnionStore) ListByUser(ctx context.Context, userID string) ([]entities.KnowledgeItem, error) {
	items, err := s.memory.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.backing == nil {
		return items, nil
	}
	persisted, err := s.backing.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(items, persisted...), nil
}

// SearchNearest merges candidates from both stores, best first. A failing
// persistent store degrades to context-only results.
func (s *UnionStore) SearchNearest(ctx context.Context, userID string, vector []float32, limit int) ([]repositories.ScoredItem, error) {
	scored, err := s.memory.SearchNearest(ctx, userID, vector, limit)
	if err != nil {
		return nil, err
	}

	if s.backing != nil {
		persisted, err := s.backing.SearchNearest(ctx, userID, vector, limit)
		if err != nil {
			s.logger.Warn("Persistent knowledge search failed",
				zap.String("userID", userID),
				zap.Error(err))
		} else {
			scored = append(scored, persisted...)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *UnionStore) TouchUsage(ctx context.Context, itemID string) error {
	if err := s.memory.TouchUsage(ctx, itemID); err != nil {
		return err
	}
	if s.backing == nil {
		return nil
	}
	return s.backing.TouchUsage(ctx, itemID)
}
