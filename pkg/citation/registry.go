package citation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ai-research-be/internal/entity"
)

// Registry hands out stable R<n> ids for evidence fragments. Ids are assigned
// in first-seen order and never reused or renumbered. Registering the same
// fragment again (same paper id and excerpt) returns its original id, also
// across sections.
//
// A registry belongs to exactly one job's stage sequence and is not safe for
// concurrent use.
type Registry struct {
	next  int
	byKey map[string]string
	items map[string]entity.RefItem
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		next:  1,
		byKey: make(map[string]string),
		items: make(map[string]entity.RefItem),
	}
}

// Register returns the ref id for the fragment, assigning the next free id on
// first sight.
func (r *Registry) Register(frag entity.EvidenceFragment) string {
	key := fragmentKey(frag.PaperId, frag.Excerpt)
	if id, ok := r.byKey[key]; ok {
		return id
	}
	id := fmt.Sprintf("R%d", r.next)
	r.next++
	r.byKey[key] = id
	r.items[id] = entity.RefItem{
		RefId:   id,
		PaperId: frag.PaperId,
		Title:   frag.Title,
		Source:  frag.Source,
		Excerpt: frag.Excerpt,
	}
	r.order = append(r.order, id)
	return id
}

// Resolve looks up the catalog entry for a ref id.
func (r *Registry) Resolve(refId string) (entity.RefItem, bool) {
	item, ok := r.items[refId]
	return item, ok
}

// Has reports whether the id exists in the catalog.
func (r *Registry) Has(refId string) bool {
	_, ok := r.items[refId]
	return ok
}

// Items returns the catalog in assignment order.
func (r *Registry) Items() []entity.RefItem {
	out := make([]entity.RefItem, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// RefNumber extracts the numeric part of a ref id: "R12" -> 12. Returns 0
// for anything that is not a ref id.
func RefNumber(refId string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(refId, "R"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SortRefIds orders ids numerically in place, so R2 sorts before R10.
func SortRefIds(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return RefNumber(ids[i]) < RefNumber(ids[j])
	})
}

func fragmentKey(paperId, excerpt string) string {
	h := sha256.Sum256([]byte(paperId + "\x00" + excerpt))
	return hex.EncodeToString(h[:])
}
