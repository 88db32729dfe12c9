package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/lokutor-ai/lokutor-dictation/pkg/store"
)

// draftView is the wire shape of a persisted draft, trimmed to a
// start/end preview when summary=true was requested.
type draftView struct {
	DraftID       string  `json:"draft_id"`
	Timestamp     float64 `json:"timestamp"`
	StartText     string  `json:"start_text"`
	EndText       *string `json:"end_text,omitempty"`
	FullText      string  `json:"full_text,omitempty"`
	ClassName     string  `json:"classname"`
	DirectoryPath *string `json:"directory_path,omitempty"`
	ParentDraftID *string `json:"parent_draft_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// persistenceDisabled answers 503 and reports true when the server was
// built without a draft store (config.DisablePersistence), the one case
// where these endpoints have nothing to serve.
func (s *Server) persistenceDisabled(w http.ResponseWriter) bool {
	if s.store != nil {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, "draft persistence is disabled")
	return true
}

func toDraftView(d store.DraftRecord, summary bool) draftView {
	v := draftView{
		DraftID:       d.DraftID,
		Timestamp:     d.Timestamp,
		StartText:     d.StartText,
		EndText:       d.EndText,
		ClassName:     d.ClassName,
		DirectoryPath: d.DirectoryPath,
		ParentDraftID: d.ParentDraftID,
		CreatedAt:     d.CreatedAt,
	}
	if !summary {
		v.FullText = d.FullText
	}
	return v
}

// handleListDrafts implements GET /drafts.
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	if s.persistenceDisabled(w) {
		return
	}
	q := r.URL.Query()

	params := store.ListParams{Order: "asc"}
	if since := q.Get("since"); since != "" {
		ts, err := parseTimestamp(since)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.Since = &ts
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be an integer in [1,1000]")
			return
		}
		params.Limit = n
	} else {
		params.Limit = 1000
	}
	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		params.Offset = n
	}
	if order := q.Get("order"); order == "asc" || order == "desc" {
		params.Order = order
	} else if order != "" {
		writeError(w, http.StatusBadRequest, "order must be 'asc' or 'desc'")
		return
	}
	summary := q.Get("summary") == "true" || q.Get("summary") == "1"

	res, err := s.store.ListPaginated(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]draftView, len(res.Drafts))
	for i, d := range res.Drafts {
		views[i] = toDraftView(d, summary)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"drafts":   views,
		"total":    res.Total,
		"limit":    res.Limit,
		"offset":   res.Offset,
		"has_more": res.HasMore,
	})
}

// handleGetDraft implements GET /drafts/{draft_id}.
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	if s.persistenceDisabled(w) {
		return
	}
	draftID := r.PathValue("draft_id")
	q := r.URL.Query()
	includeParent := q.Get("include_parent") == "true"
	includeChildren := q.Get("include_children") == "true"

	d, parent, children, err := s.store.GetWithFamily(r.Context(), draftID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{"draft": toDraftView(d, false)}
	if includeParent && parent != nil {
		pv := toDraftView(*parent, false)
		resp["parent"] = pv
	}
	if includeChildren {
		cv := make([]draftView, len(children))
		for i, c := range children {
			cv[i] = toDraftView(c, false)
		}
		resp["children"] = cv
	}
	writeJSON(w, http.StatusOK, resp)
}

type putRevisionRequest struct {
	OriginalDraftID string          `json:"original_draft_id"`
	RevisedDraft    json.RawMessage `json:"revised_draft"`
	Metadata        struct {
		Model     string  `json:"model"`
		Source    string  `json:"source"`
		SourceURI string  `json:"source_uri"`
		Timestamp float64 `json:"timestamp"`
	} `json:"metadata"`
}

// handlePutRevision implements POST /api/revisions.
func (s *Server) handlePutRevision(w http.ResponseWriter, r *http.Request) {
	if s.persistenceDisabled(w) {
		return
	}
	var req putRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed revision payload")
		return
	}
	if req.OriginalDraftID == "" {
		writeError(w, http.StatusBadRequest, "original_draft_id is required")
		return
	}

	revisionID := uuid.NewString()
	createdAt := formatISO(req.Metadata.Timestamp)
	err := s.store.PutRevision(r.Context(), store.RevisionRecord{
		RevisionID:      revisionID,
		OriginalDraftID: req.OriginalDraftID,
		RevisedDraft:    string(req.RevisedDraft),
		Model:           req.Metadata.Model,
		Source:          req.Metadata.Source,
		SourceURI:       req.Metadata.SourceURI,
		CreatedAt:       createdAt,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "original draft not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"revision_id":       revisionID,
		"original_draft_id": req.OriginalDraftID,
		"stored":            true,
		"created_at":        createdAt,
	})
}

const textPreviewLen = 120

type revisionView struct {
	RevisionID  string `json:"revision_id"`
	CreatedAt   string `json:"created_at"`
	Model       string `json:"model"`
	Source      string `json:"source"`
	SourceURI   string `json:"source_uri"`
	TextPreview string `json:"text_preview"`
	FullText    string `json:"full_text"`
}

// handleListRevisions implements GET /api/revisions/{draft_id}.
func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	if s.persistenceDisabled(w) {
		return
	}
	draftID := r.PathValue("draft_id")

	original, err := s.store.Get(r.Context(), draftID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	revisions, err := s.store.ListRevisions(r.Context(), draftID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]revisionView, len(revisions))
	for i, rv := range revisions {
		views[i] = revisionView{
			RevisionID:  rv.RevisionID,
			CreatedAt:   rv.CreatedAt,
			Model:       rv.Model,
			Source:      rv.Source,
			SourceURI:   rv.SourceURI,
			TextPreview: preview(rv.RevisedDraft, textPreviewLen),
			FullText:    rv.RevisedDraft,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"draft_id":       draftID,
		"original_draft": toDraftView(original, false),
		"revisions":      views,
	})
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
