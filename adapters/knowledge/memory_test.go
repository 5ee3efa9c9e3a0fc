package knowledge

import (
	"context"
	"math"
	"testing"

	"github.com/JO-HEEJIN/interview-mate-sub000/domain/entities"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite clamps to zero", []float32{1, 0}, []float32{-1, 0}, 0},
		{"empty", nil, nil, 0},
		{"mismatched lengths", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, c := range cases {
		if got := CosineSimilarity(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: CosineSimilarity = %f, want %f", c.name, got, c.want)
		}
	}
}

func TestMemoryStoreSearchNearest(t *testing.T) {
	store := NewMemoryStore()
	store.Load("user-123", []entities.KnowledgeItem{
		{ID: "far", Embedding: []float32{0, 1}},
		{ID: "near", Embedding: []float32{1, 0}},
		{ID: "mid", Embedding: []float32{0.7071, 0.7071}},
	})

	scored, err := store.SearchNearest(context.Background(), "user-123", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Expected search to succeed, got %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("Expected limit to cap results at 2, got %d", len(scored))
	}
	if scored[0].Item.ID != "near" {
		t.Errorf("Expected nearest item first, got %s", scored[0].Item.ID)
	}
	if scored[1].Item.ID != "mid" {
		t.Errorf("Expected mid item second, got %s", scored[1].Item.ID)
	}

	scored, err = store.SearchNearest(context.Background(), "other-user", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Expected search to succeed, got %v", err)
	}
	if len(scored) != 0 {
		t.Errorf("Expected no results for a different user, got %d", len(scored))
	}
}

func TestMemoryStoreTouchUsage(t *testing.T) {
	store := NewMemoryStore()
	store.Load("user-123", []entities.KnowledgeItem{
		{ID: "item-1", Embedding: []float32{1, 0}},
	})

	if err := store.TouchUsage(context.Background(), "item-1"); err != nil {
		t.Fatalf("Expected touch to succeed, got %v", err)
	}
	if err := store.TouchUsage(context.Background(), "item-1"); err != nil {
		t.Fatalf("Expected touch to succeed, got %v", err)
	}

	items, err := store.ListByUser(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if items[0].UsageCount != 2 {
		t.Errorf("Expected usage count 2, got %d", items[0].UsageCount)
	}
	if items[0].LastUsedAt.IsZero() {
		t.Error("Expected last-used timestamp to be set")
	}
}

func TestMemoryStoreLoadReplaces(t *testing.T) {
	store := NewMemoryStore()
	store.Load("user-123", []entities.KnowledgeItem{{ID: "old"}})
	store.Load("user-123", []entities.KnowledgeItem{{ID: "new"}})

	items, _ := store.ListByUser(context.Background(), "user-123")
	if len(items) != 1 || items[0].ID != "new" {
		t.Errorf("Expected load to replace prior items, got %v", items)
	}
}
