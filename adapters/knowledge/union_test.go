package knowledge

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/adapters/embedding"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

func TestUnionStoreLoadMakesItemsSearchable(t *testing.T) {
	embedder := embedding.NewMockEmbedder()
	embedder.Vectors["Why us?"] = []float32{1, 0, 0, 0}

	store := NewUnionStore(nil, embedder, zap.NewNop())
	err := store.Load(context.Background(), "user-123", []entities.KnowledgeItem{
		{ID: "item-1", Kind: entities.KnowledgeKindQA, Question: "Why us?", Answer: "Because."},
	})
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}

	// Load returns only once the items are searchable.
	scored, err := store.SearchNearest(context.Background(), "user-123", []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Expected search to succeed, got %v", err)
	}
	if len(scored) != 1 || scored[0].Similarity < 0.999 {
		t.Fatalf("Expected the loaded item to be immediately searchable, got %v", scored)
	}
	if scored[0].Item.Answer != "Because." {
		t.Errorf("Unexpected item %+v", scored[0].Item)
	}
}

func TestUnionStoreLoadKeepsItemsWhoseEmbeddingFails(t *testing.T) {
	embedder := embedding.NewMockEmbedder()
	embedder.Fail = true

	store := NewUnionStore(nil, embedder, zap.NewNop())
	err := store.Load(context.Background(), "user-123", []entities.KnowledgeItem{
		{ID: "item-1", Kind: entities.KnowledgeKindQA, Question: "Why us?", Answer: "Because."},
	})
	if err != nil {
		t.Fatalf("Expected load to tolerate embedding failures, got %v", err)
	}

	items, err := store.ListByUser(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected the item to be kept without an embedding, got %d items", len(items))
	}
	if len(items[0].Embedding) != 0 {
		t.Errorf("Expected no embedding after a provider failure, got %v", items[0].Embedding)
	}
}

func TestUnionStoreMergesBackingResults(t *testing.T) {
	embedder := embedding.NewMockEmbedder()

	backing := NewMemoryStore()
	backing.Load("user-123", []entities.KnowledgeItem{
		{ID: "persisted", Embedding: []float32{1, 0, 0, 0}},
	})

	store := NewUnionStore(backing, embedder, zap.NewNop())

	scored, err := store.SearchNearest(context.Background(), "user-123", []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Expected search to succeed, got %v", err)
	}
	if len(scored) != 1 || scored[0].Item.ID != "persisted" {
		t.Errorf("Expected the persisted item, got %v", scored)
	}
}
