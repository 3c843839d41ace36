package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flagkeep/flagkeep/internal/audit"
	"github.com/flagkeep/flagkeep/internal/store"
	"github.com/flagkeep/flagkeep/internal/telemetry"
	"github.com/flagkeep/flagkeep/internal/validation"
	"github.com/flagkeep/flagkeep/internal/webhook"
)

// ---- request DTOs ----

type createRequest struct {
	FlagKey     string          `json:"flag_key"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	FlagData    json.RawMessage `json:"flag_data"`
}

// updateRequest models partial-update-by-presence: nil means the field
// was absent from the body and must retain its prior value.
type updateRequest struct {
	Description *string         `json:"description"`
	Enabled     *bool           `json:"enabled"`
	FlagData    json.RawMessage `json:"flag_data"`
}

// ---- handlers ----

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	flags, err := s.store.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, flags)
}

func (s *Server) handleListEnabled(w http.ResponseWriter, r *http.Request) {
	flags, err := s.store.ListEnabled(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, flags)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	flag, err := s.store.GetByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeData(w, http.StatusOK, flag)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result := validation.ValidateFlagKey(req.FlagKey)
	result.Merge(validation.ValidateDescription(req.Description))
	result.Merge(validation.ValidateFlagData(req.FlagData))
	if !result.Valid {
		writeFieldErrors(w, result.Errors)
		return
	}

	flag, err := s.store.Create(r.Context(), store.CreateParams{
		FlagKey:     req.FlagKey,
		Description: req.Description,
		Enabled:     req.Enabled,
		FlagData:    req.FlagData,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.afterMutation(r, audit.ActionCreated, webhook.EventFlagCreated, flag.FlagKey, flag)
	writeData(w, http.StatusCreated, flag)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result := validation.NewValidationResult()
	if req.Description != nil {
		result.Merge(validation.ValidateDescription(*req.Description))
	}
	result.Merge(validation.ValidateFlagData(req.FlagData))
	if !result.Valid {
		writeFieldErrors(w, result.Errors)
		return
	}

	patch := store.Patch{
		Description: req.Description,
		Enabled:     req.Enabled,
		FlagData:    req.FlagData,
	}
	flag, err := s.store.Update(r.Context(), key, patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	if !patch.IsEmpty() {
		s.afterMutation(r, audit.ActionUpdated, webhook.EventFlagUpdated, key, flag)
	}
	writeData(w, http.StatusOK, flag)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	flag, err := s.store.Toggle(r.Context(), key)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.afterMutation(r, audit.ActionToggled, webhook.EventFlagToggled, key, flag)
	writeData(w, http.StatusOK, flag)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	found, err := s.store.Delete(r.Context(), key)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "flag not found")
		return
	}

	s.afterMutation(r, audit.ActionDeleted, webhook.EventFlagDeleted, key, nil)
	writeMessage(w, http.StatusOK, "flag deleted")
}

// afterMutation runs the post-write bookkeeping shared by every
// mutating handler: snapshot rebuild, mutation counter, audit trail and
// webhook dispatch. The snapshot rebuild is synchronous so the next
// snapshot poll observes the write; audit and webhooks are queued.
func (s *Server) afterMutation(r *http.Request, action, eventType, key string, after *store.FeatureFlag) {
	if err := s.RebuildSnapshot(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("snapshot rebuild failed")
	}
	telemetry.FlagMutations.WithLabelValues(action).Inc()

	reqID := middleware.GetReqID(r.Context())

	if s.opts.Audit != nil {
		s.opts.Audit.Log(audit.Event{
			RequestID:  reqID,
			Action:     action,
			FlagKey:    key,
			SourceIP:   r.RemoteAddr,
			AfterState: flagToMap(after),
		})
	}

	if s.opts.Hooks != nil {
		var afterJSON json.RawMessage
		if after != nil {
			afterJSON, _ = json.Marshal(after)
		}
		s.opts.Hooks.Dispatch(webhook.Event{
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Resource:  webhook.Resource{Type: "flag", Key: key},
			Data:      webhook.EventData{After: afterJSON},
			Metadata:  webhook.Metadata{IPAddress: r.RemoteAddr, RequestID: reqID},
		})
	}
}

// flagToMap converts a flag to a map for audit logging.
// Returns nil if the flag is nil.
func flagToMap(flag *store.FeatureFlag) map[string]any {
	if flag == nil {
		return nil
	}
	return map[string]any{
		"flag_key":    flag.FlagKey,
		"description": flag.Description,
		"enabled":     flag.Enabled,
		"flag_data":   json.RawMessage(flag.FlagData),
		"version":     flag.Version,
		"updated_at":  flag.UpdatedAt.Format(time.RFC3339),
	}
}
