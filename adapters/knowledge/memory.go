package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// MemoryStore keeps knowledge items in memory. It backs tests and serves the
// context-message path: items bulk-loaded over the session channel live here
// rather than in Postgres.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]entities.KnowledgeItem // keyed by user ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]entities.KnowledgeItem)}
}

// Load replaces the stored items for a user.
func (s *MemoryStore) Load(userID string, items []entities.KnowledgeItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := make([]entities.KnowledgeItem, len(items))
	copy(cpy, items)
	s.items[userID] = cpy
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]entities.KnowledgeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cpy := make([]entities.KnowledgeItem, len(s.items[userID]))
	copy(cpy, s.items[userID])
	return cpy, nil
}

func (s *MemoryStore) SearchNearest(ctx context.Context, userID string, vector []float32, limit int) ([]repositories.ScoredItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []repositories.ScoredItem
	for _, item := range s.items[userID] {
		scored = append(scored, repositories.ScoredItem{
			Item:       item,
			Similarity: CosineSimilarity(vector, item.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryStore) TouchUsage(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, items := range s.items {
		for i := range items {
			if items[i].ID == itemID {
				items[i].UsageCount++
				items[i].LastUsedAt = time.Now()
				s.items[userID] = items
				return nil
			}
		}
	}
	return nil
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// clamped to [0,1]. Mismatched or zero-length vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}
