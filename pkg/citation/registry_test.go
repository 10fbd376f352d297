package citation

import (
	"fmt"
	"testing"

	"ai-research-be/internal/entity"
)

func frag(paperId, excerpt string) entity.EvidenceFragment {
	return entity.EvidenceFragment{
		PaperId: paperId,
		Title:   "Paper " + paperId,
		Source:  "ICLR 2024",
		Excerpt: excerpt,
	}
}

func TestRegistryAssignsMonotonicIds(t *testing.T) {
	r := NewRegistry()

	for i := 1; i <= 5; i++ {
		id := r.Register(frag(fmt.Sprintf("p%d", i), "excerpt"))
		want := fmt.Sprintf("R%d", i)
		if id != want {
			t.Errorf("Register #%d = %q, want %q", i, id, want)
		}
	}

	if r.Len() != 5 {
		t.Errorf("Len = %d, want 5", r.Len())
	}
}

func TestRegistryDeduplicatesAcrossSections(t *testing.T) {
	r := NewRegistry()

	first := r.Register(frag("p1", "shared excerpt"))
	r.Register(frag("p2", "other excerpt"))

	// Same fragment registered again, as a later section would.
	again := r.Register(frag("p1", "shared excerpt"))
	if again != first {
		t.Errorf("re-register = %q, want original id %q", again, first)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2 after dedup", r.Len())
	}

	// Same paper, different excerpt is a new fragment.
	other := r.Register(frag("p1", "different excerpt"))
	if other != "R3" {
		t.Errorf("new excerpt id = %q, want R3", other)
	}

	// Earlier ids are untouched.
	if got := r.Register(frag("p2", "other excerpt")); got != "R2" {
		t.Errorf("p2 id changed to %q, want R2", got)
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	r.Register(frag("p1", "one"))
	r.Register(frag("p2", "two"))

	item, ok := r.Resolve("R2")
	if !ok {
		t.Fatal("Resolve(R2) not found")
	}
	if item.PaperId != "p2" || item.Excerpt != "two" {
		t.Errorf("Resolve(R2) = %+v, want p2/two", item)
	}

	if _, ok := r.Resolve("R99"); ok {
		t.Error("Resolve(R99) should not be found")
	}
	if r.Has("R99") {
		t.Error("Has(R99) = true, want false")
	}
}

func TestRegistryItemsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(frag("b", "bb"))
	r.Register(frag("a", "aa"))
	r.Register(frag("c", "cc"))

	items := r.Items()
	if len(items) != 3 {
		t.Fatalf("Items len = %d, want 3", len(items))
	}
	wantOrder := []string{"b", "a", "c"}
	for i, item := range items {
		if item.PaperId != wantOrder[i] {
			t.Errorf("Items[%d].PaperId = %q, want %q", i, item.PaperId, wantOrder[i])
		}
		wantId := fmt.Sprintf("R%d", i+1)
		if item.RefId != wantId {
			t.Errorf("Items[%d].RefId = %q, want %q", i, item.RefId, wantId)
		}
	}
}

func TestSortRefIds(t *testing.T) {
	ids := []string{"R10", "R2", "R1", "R21"}
	SortRefIds(ids)

	want := []string{"R1", "R2", "R10", "R21"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SortRefIds[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestRefNumber(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"R1", 1},
		{"R42", 42},
		{"x", 0},
		{"R", 0},
	}

	for _, tt := range tests {
		if got := RefNumber(tt.id); got != tt.want {
			t.Errorf("RefNumber(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
