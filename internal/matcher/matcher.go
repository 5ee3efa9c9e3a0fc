// Package matcher performs nearest-neighbor search for a detected question
// over the user's persisted knowledge items and the session-local cache of
// already-generated answers.
package matcher

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/adapters/knowledge"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
)

// Result is the outcome of one match attempt.
type Result struct {
	// Hit is true when the best candidate scored at or above the threshold.
	Hit bool
	// Answer is populated on a hit, with origin cache.
	Answer entities.Answer
	// Similarity of the best candidate, hit or not.
	Similarity float64
	// ItemID of the persisted item that served the hit, empty for
	// session-cache hits.
	ItemID string
	// BestStory is the closest STAR story regardless of threshold; useful as
	// generation context even when it is not a hit.
	BestStory *entities.KnowledgeItem
	// Vector is the question embedding, reusable by the caller. Nil when the
	// embedding provider failed and the match degraded to a miss.
	Vector []float32
}

// Matcher embeds question text and searches for cached answers.
type Matcher struct {
	embedder  repositories.Embedder
	store     repositories.KnowledgeStore
	logger    *zap.Logger
	threshold float64
	limit     int
}

func New(embedder repositories.Embedder, store repositories.KnowledgeStore, threshold float64, limit int, logger *zap.Logger) *Matcher {
	if limit <= 0 {
		limit = 5
	}
	return &Matcher{
		embedder:  embedder,
		store:     store,
		logger:    logger,
		threshold: threshold,
		limit:     limit,
	}
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match embeds the question and searches persisted items plus the session
// cache. An embedding failure degrades to a miss rather than failing the
// turn. Ties break by highest similarity, then most-recently-used.
func (m *Matcher) Match(ctx context.Context, userID string, question entities.Question, cache *SessionCache) Result {
	vector, err := m.embedder.Embed(ctx, question.Text)
	if err != nil {
		m.logger.Warn("Embedding failed, treating as cache miss",
			zap.String("userID", userID),
			zap.Error(err))
		return Result{}
	}

	var (
		best           repositories.ScoredItem
		bestSet        bool
		bestStory      *entities.KnowledgeItem
		bestStoryScore float64
	)

	scored, err := m.store.SearchNearest(ctx, userID, vector, m.limit)
	if err != nil {
		m.logger.Warn("Knowledge search failed, continuing with session cache only",
			zap.String("userID", userID),
			zap.Error(err))
	}

	for _, s := range scored {
		if s.Item.Kind == entities.KnowledgeKindStory {
			if bestStory == nil || s.Similarity > bestStoryScore {
				item := s.Item
				bestStory = &item
				bestStoryScore = s.Similarity
			}
			continue
		}
		if !bestSet || better(s, best) {
			best = s
			bestSet = true
		}
	}

	// Session cache competes on the same terms as persisted items.
	fromCache := false
	if cache != nil {
		if entry, sim, ok := cache.Nearest(vector); ok {
			candidate := repositories.ScoredItem{
				Item: entities.KnowledgeItem{
					Question:   entry.Answer.Question.Text,
					Answer:     entry.Answer.Text,
					LastUsedAt: entry.LastUsed,
				},
				Similarity: sim,
			}
			if !bestSet || better(candidate, best) {
				best = candidate
				bestSet = true
				fromCache = true
			}
		}
	}

	result := Result{Vector: vector, BestStory: bestStory}
	if !bestSet {
		return result
	}

	result.Similarity = best.Similarity
	if best.Similarity < m.threshold {
		m.logger.Debug("Best candidate below threshold",
			zap.Float64("similarity", best.Similarity),
			zap.Float64("threshold", m.threshold))
		return result
	}

	result.Hit = true
	result.ItemID = best.Item.ID
	if fromCache {
		// Refresh recency so repeated hits win most-recently-used tie-breaks.
		cache.Touch(best.Item.Question)
	}
	result.Answer = entities.Answer{
		Question:  question,
		Text:      best.Item.Answer,
		Origin:    entities.AnswerOriginCache,
		ItemID:    best.Item.ID,
		CreatedAt: time.Now(),
	}
	return result
}

// TouchUsage bumps the usage counter of a persisted item that served a hit.
func (m *Matcher) TouchUsage(ctx context.Context, itemID string) error {
	return m.store.TouchUsage(ctx, itemID)
}

// better reports whether a should win over b: higher similarity first, then
// most-recently-used.
func better(a, b repositories.ScoredItem) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.Item.LastUsedAt.After(b.Item.LastUsedAt)
}

// SessionCache holds answers generated earlier in the session so an
// interviewer repeating a question gets the same answer without another
// provider call. Cleared only on explicit session clear. Safe for use by
// the dispatch loop and its generation workers concurrently.
type SessionCache struct {
	mu      sync.Mutex
	entries []CacheEntry
}

// CacheEntry pairs an answer with the embedding of its question.
type CacheEntry struct {
	Answer   entities.Answer
	Vector   []float32
	LastUsed time.Time
}

func NewSessionCache() *SessionCache {
	return &SessionCache{}
}

// Add stores a generated answer under its question vector.
func (c *SessionCache) Add(answer entities.Answer, vector []float32) {
	if len(vector) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, CacheEntry{
		Answer:   answer,
		Vector:   vector,
		LastUsed: time.Now(),
	})
}

// Nearest returns the closest cached entry and its similarity.
func (c *SessionCache) Nearest(vector []float32) (CacheEntry, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		best    CacheEntry
		bestSim float64
		found   bool
	)
	for _, e := range c.entries {
		sim := knowledge.CosineSimilarity(vector, e.Vector)
		if !found || sim > bestSim || (sim == bestSim && e.LastUsed.After(best.LastUsed)) {
			best = e
			bestSim = sim
			found = true
		}
	}
	return best, bestSim, found
}

// Touch refreshes the recency of the entry matching the question text.
func (c *SessionCache) Touch(questionText string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].Answer.Question.Text == questionText {
			c.entries[i].LastUsed = time.Now()
		}
	}
}

// Len reports the number of cached answers.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all cached answers.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
