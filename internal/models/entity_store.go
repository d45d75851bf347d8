package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when an entity is not found in a collection.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicateID is returned when an id is already taken.
	ErrDuplicateID = errors.New("duplicate entity id")
	// ErrInvalidPatch is returned when a draft patch names unknown or
	// read-only fields, or carries values of the wrong type.
	ErrInvalidPatch = errors.New("invalid draft patch")
)

// Fields a draft may never touch. Ids only change through Remap and
// CommitCreate, and the draft flag is derived.
var readOnlyFields = map[string]bool{"id": true, "cmId": true, "isDraft": true}

// Entity is implemented by every record held in a Collection. Methods use
// value receivers and return modified copies.
type Entity[T any] interface {
	EntityID() string
	WithID(id string) T
	WithDraftFlag(draft bool) T
}

// Patch is a partial entity keyed by JSON field name.
type Patch map[string]any

// snapshot is an immutable view of a collection.
type snapshot[T any] struct {
	order     []string
	canonical map[string]T
	drafts    map[string]map[string]json.RawMessage
}

func (s *snapshot[T]) clone() *snapshot[T] {
	next := &snapshot[T]{
		order:     make([]string, len(s.order)),
		canonical: make(map[string]T, len(s.canonical)),
		drafts:    make(map[string]map[string]json.RawMessage, len(s.drafts)),
	}
	copy(next.order, s.order)
	for k, v := range s.canonical {
		next.canonical[k] = v
	}
	for k, v := range s.drafts {
		next.drafts[k] = v
	}
	return next
}

// Collection holds the canonical records of one entity type together with a
// draft overlay keyed by id. Readers load an immutable snapshot without
// locking; writers are serialised and publish a new snapshot per change so
// every mutation, including an id remap, is observed atomically.
type Collection[T Entity[T]] struct {
	mu   sync.Mutex
	data atomic.Pointer[snapshot[T]]
}

// NewCollection creates an empty collection.
func NewCollection[T Entity[T]]() *Collection[T] {
	c := &Collection[T]{}
	c.data.Store(&snapshot[T]{
		canonical: make(map[string]T),
		drafts:    make(map[string]map[string]json.RawMessage),
	})
	return c
}

// Len returns the number of canonical records.
func (c *Collection[T]) Len() int {
	return len(c.data.Load().order)
}

// Get returns the canonical record for id, ignoring any draft.
func (c *Collection[T]) Get(id string) (T, bool) {
	v, ok := c.data.Load().canonical[id]
	return v, ok
}

// Has reports whether id has a canonical record.
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.data.Load().canonical[id]
	return ok
}

// HasDraft reports whether id carries a pending draft.
func (c *Collection[T]) HasDraft(id string) bool {
	_, ok := c.data.Load().drafts[id]
	return ok
}

// Draft returns a copy of the pending patch for id.
func (c *Collection[T]) Draft(id string) (Patch, bool) {
	fields, ok := c.data.Load().drafts[id]
	if !ok {
		return nil, false
	}
	out := make(Patch, len(fields))
	for k, raw := range fields {
		var v any
		_ = json.Unmarshal(raw, &v)
		out[k] = v
	}
	return out, true
}

// DraftIDs returns the ids with pending drafts in collection order.
func (c *Collection[T]) DraftIDs() []string {
	data := c.data.Load()
	ids := make([]string, 0, len(data.drafts))
	for _, id := range data.order {
		if _, ok := data.drafts[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// MergedView returns the canonical record for id with its draft shallow
// merged on top and IsDraft set accordingly. The canonical record is never
// modified.
func (c *Collection[T]) MergedView(id string) (T, bool) {
	data := c.data.Load()
	base, ok := data.canonical[id]
	if !ok {
		var zero T
		return zero, false
	}
	return mergedView(base, data.drafts[id]), true
}

// All returns the merged view of every record in collection order.
func (c *Collection[T]) All() []T {
	data := c.data.Load()
	out := make([]T, 0, len(data.order))
	for _, id := range data.order {
		out = append(out, mergedView(data.canonical[id], data.drafts[id]))
	}
	return out
}

func mergedView[T Entity[T]](base T, fields map[string]json.RawMessage) T {
	if fields == nil {
		return base.WithDraftFlag(false)
	}
	merged, err := merge(base, fields)
	if err != nil {
		zap.L().Warn("draft merge failed, showing canonical record",
			zap.String("id", base.EntityID()), zap.Error(err))
		return base.WithDraftFlag(true)
	}
	return merged.WithDraftFlag(true)
}

// merge overlays fields on a JSON copy of base so base itself, including any
// slices it shares, is left untouched.
func merge[T any](base T, fields map[string]json.RawMessage) (T, error) {
	var out T
	raw, err := json.Marshal(base)
	if err != nil {
		return out, fmt.Errorf("marshal base: %w", err)
	}
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &obj); err != nil {
		return out, fmt.Errorf("decode base: %w", err)
	}
	for k, v := range fields {
		obj[k] = v
	}
	raw, err = json.Marshal(obj)
	if err != nil {
		return out, fmt.Errorf("marshal merged: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode merged: %w", err)
	}
	return out, nil
}

// encodePatch checks patch against T and returns its fields as raw JSON.
func encodePatch[T any](patch Patch) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(patch))
	for k, v := range patch {
		if readOnlyFields[k] {
			return nil, fmt.Errorf("%w: field %q is read-only", ErrInvalidPatch, k)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidPatch, k, err)
		}
		fields[k] = raw
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var probe T
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return fields, nil
}

// Load replaces the canonical records with a fresh fetch. Records that still
// carry drafts but are absent from items (for example local rows that were
// never published) are kept, so a refetch never loses a draft. Drafts of
// records present in items now describe changes relative to the new fetch.
func (c *Collection[T]) Load(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	next := &snapshot[T]{
		order:     make([]string, 0, len(items)),
		canonical: make(map[string]T, len(items)),
		drafts:    make(map[string]map[string]json.RawMessage, len(cur.drafts)),
	}
	for _, it := range items {
		id := it.EntityID()
		if _, dup := next.canonical[id]; dup {
			continue
		}
		next.order = append(next.order, id)
		next.canonical[id] = it.WithDraftFlag(false)
	}
	for _, id := range cur.order {
		fields, drafted := cur.drafts[id]
		if !drafted {
			continue
		}
		if _, fetched := next.canonical[id]; !fetched {
			next.order = append(next.order, id)
			next.canonical[id] = cur.canonical[id]
		}
		next.drafts[id] = fields
	}
	c.data.Store(next)
}

// AddLocal inserts a locally created record together with an empty draft so
// that it is picked up by the next publish.
func (c *Collection[T]) AddLocal(item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	id := item.EntityID()
	if id == "" {
		return fmt.Errorf("add local record: empty id")
	}
	if _, exists := cur.canonical[id]; exists {
		return fmt.Errorf("add local record %s: %w", id, ErrDuplicateID)
	}
	next := cur.clone()
	next.order = append(next.order, id)
	next.canonical[id] = item.WithDraftFlag(false)
	next.drafts[id] = map[string]json.RawMessage{}
	c.data.Store(next)
	return nil
}

// UpdateDraft merges patch into the draft for id, creating the draft from the
// canonical baseline when none exists. Later calls overwrite earlier values
// field by field; drafts never stack. It returns false without error when id
// has no canonical record.
func (c *Collection[T]) UpdateDraft(id string, patch Patch) (bool, error) {
	fields, err := encodePatch[T](patch)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	if _, ok := cur.canonical[id]; !ok {
		return false, nil
	}
	merged := make(map[string]json.RawMessage, len(cur.drafts[id])+len(fields))
	for k, v := range cur.drafts[id] {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	next := cur.clone()
	next.drafts[id] = merged
	c.data.Store(next)
	return true, nil
}

// ClearDraft drops the draft for id. It is a no-op when there is none.
func (c *Collection[T]) ClearDraft(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	if _, ok := cur.drafts[id]; !ok {
		return
	}
	next := cur.clone()
	delete(next.drafts, id)
	c.data.Store(next)
}

// Remap moves the record and any draft from oldID to newID, keeping its
// position in the collection.
func (c *Collection[T]) Remap(oldID, newID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	rec, ok := cur.canonical[oldID]
	if !ok {
		return fmt.Errorf("remap %s: %w", oldID, ErrNotFound)
	}
	if oldID == newID {
		return nil
	}
	if _, taken := cur.canonical[newID]; taken {
		return fmt.Errorf("remap %s to %s: %w", oldID, newID, ErrDuplicateID)
	}
	next := cur.clone()
	replaceID(next.order, oldID, newID)
	delete(next.canonical, oldID)
	next.canonical[newID] = rec.WithID(newID)
	if fields, drafted := next.drafts[oldID]; drafted {
		delete(next.drafts, oldID)
		next.drafts[newID] = fields
	}
	c.data.Store(next)
	return nil
}

// Commit replaces the canonical record with the server's copy and clears the
// record's draft in the same swap.
func (c *Collection[T]) Commit(updated T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	id := updated.EntityID()
	if _, ok := cur.canonical[id]; !ok {
		return fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	next := cur.clone()
	next.canonical[id] = updated.WithDraftFlag(false)
	delete(next.drafts, id)
	c.data.Store(next)
	return nil
}

// CommitCreate retires the local record oldID in favour of created, which
// carries the server id. The old id, its draft and the new canonical record
// change in a single swap, so no reader ever sees the local id alongside the
// server one.
func (c *Collection[T]) CommitCreate(oldID string, created T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	if _, ok := cur.canonical[oldID]; !ok {
		return fmt.Errorf("commit create %s: %w", oldID, ErrNotFound)
	}
	newID := created.EntityID()
	next := cur.clone()
	if _, exists := next.canonical[newID]; exists && newID != oldID {
		next.order = removeID(next.order, newID)
	}
	replaceID(next.order, oldID, newID)
	delete(next.canonical, oldID)
	delete(next.drafts, oldID)
	delete(next.drafts, newID)
	next.canonical[newID] = created.WithDraftFlag(false)
	c.data.Store(next)
	return nil
}

// Delete removes a record and its draft.
func (c *Collection[T]) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.data.Load()
	if _, ok := cur.canonical[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	next := cur.clone()
	next.order = removeID(next.order, id)
	delete(next.canonical, id)
	delete(next.drafts, id)
	c.data.Store(next)
	return nil
}

func replaceID(order []string, oldID, newID string) {
	for i, id := range order {
		if id == oldID {
			order[i] = newID
			return
		}
	}
}

func removeID(order []string, target string) []string {
	out := order[:0]
	for _, id := range order {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
