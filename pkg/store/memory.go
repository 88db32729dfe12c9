package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a process-local DraftStore used for tests and when no
// database DSN is configured.
type MemoryStore struct {
	mu        sync.Mutex
	drafts    map[string]DraftRecord
	order     []string // insertion order, for ListPaginated's default ordering
	revisions map[string][]RevisionRecord
}

// NewMemory builds an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		drafts:    make(map[string]DraftRecord),
		revisions: make(map[string][]RevisionRecord),
	}
}

func (m *MemoryStore) Put(ctx context.Context, d DraftRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.drafts[d.DraftID]; !exists {
		m.order = append(m.order, d.DraftID)
	}
	m.drafts[d.DraftID] = d
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, draftID string) (DraftRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[draftID]
	if !ok {
		return DraftRecord{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryStore) GetWithFamily(ctx context.Context, draftID string) (DraftRecord, *DraftRecord, []DraftRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[draftID]
	if !ok {
		return DraftRecord{}, nil, nil, ErrNotFound
	}

	var parent *DraftRecord
	if d.ParentDraftID != nil {
		if p, ok := m.drafts[*d.ParentDraftID]; ok {
			parent = &p
		}
	}

	var children []DraftRecord
	for _, id := range m.order {
		c := m.drafts[id]
		if c.ParentDraftID != nil && *c.ParentDraftID == draftID {
			children = append(children, c)
		}
	}
	return d, parent, children, nil
}

func (m *MemoryStore) ListPaginated(ctx context.Context, p ListParams) (ListResult, error) {
	m.mu.Lock()
	all := make([]DraftRecord, 0, len(m.order))
	for _, id := range m.order {
		d := m.drafts[id]
		if p.Since != nil && d.Timestamp < *p.Since {
			continue
		}
		all = append(all, d)
	}
	m.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool {
		if p.Order == "desc" {
			return all[i].Timestamp > all[j].Timestamp
		}
		return all[i].Timestamp < all[j].Timestamp
	})

	total := len(all)
	limit := p.Limit
	if limit <= 0 {
		limit = total
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}

	var page []DraftRecord
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = all[offset:end]
	}

	return ListResult{
		Drafts:  page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(page) < total,
	}, nil
}

func (m *MemoryStore) ListSince(ctx context.Context, since float64) ([]DraftRecord, error) {
	res, err := m.ListPaginated(ctx, ListParams{Since: &since, Order: "asc"})
	if err != nil {
		return nil, err
	}
	return res.Drafts, nil
}

func (m *MemoryStore) PutRevision(ctx context.Context, r RevisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[r.OriginalDraftID]; !ok {
		return ErrNotFound
	}
	m.revisions[r.OriginalDraftID] = append(m.revisions[r.OriginalDraftID], r)
	return nil
}

func (m *MemoryStore) ListRevisions(ctx context.Context, draftID string) ([]RevisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RevisionRecord(nil), m.revisions[draftID]...), nil
}

func (m *MemoryStore) Close() error { return nil }
