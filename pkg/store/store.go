// Package store persists drafts and their revisions, with time-range,
// parent/child, and pagination queries.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a draft_id or original_draft_id is
// unknown.
var ErrNotFound = errors.New("store: not found")

// DraftRecord is the persisted form of a draft.Draft.
type DraftRecord struct {
	DraftID       string
	Timestamp     float64
	StartText     string
	EndText       *string
	FullText      string
	ClassName     string
	DirectoryPath *string
	ParentDraftID *string
	CreatedAt     string // ISO-8601
}

// RevisionRecord is an externally produced alternative transcription of a
// draft.
type RevisionRecord struct {
	RevisionID      string
	OriginalDraftID string
	RevisedDraft    string // JSON payload, opaque to the store
	Model           string
	Source          string
	SourceURI       string
	CreatedAt       string // ISO-8601
}

// ListParams controls GET /drafts pagination and filtering.
type ListParams struct {
	Since  *float64 // unix seconds; nil = no lower bound
	Limit  int
	Offset int
	Order  string // "asc" or "desc"; defaults to "asc"
}

// ListResult is the paginated response shape for GET /drafts.
type ListResult struct {
	Drafts  []DraftRecord
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

// DraftStore persists drafts and revisions.
type DraftStore interface {
	Put(ctx context.Context, d DraftRecord) error
	Get(ctx context.Context, draftID string) (DraftRecord, error)
	GetWithFamily(ctx context.Context, draftID string) (rec DraftRecord, parent *DraftRecord, children []DraftRecord, err error)
	ListPaginated(ctx context.Context, p ListParams) (ListResult, error)
	ListSince(ctx context.Context, since float64) ([]DraftRecord, error)
	PutRevision(ctx context.Context, r RevisionRecord) error
	ListRevisions(ctx context.Context, draftID string) ([]RevisionRecord, error)
	Close() error
}
