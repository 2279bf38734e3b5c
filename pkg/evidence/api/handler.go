// Package api exposes the evidence service over HTTP. Authentication and
// authorization happen upstream; handlers here translate requests into
// service calls and error classes into status codes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/casetrail/casetrail/pkg/evidence"
	"github.com/casetrail/casetrail/pkg/evidence/objectkey"
)

// Handler handles HTTP requests for the evidence service.
type Handler struct {
	service evidence.Service
}

// NewHandler creates a new evidence handler.
func NewHandler(service evidence.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the routes for the evidence API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/cases/{caseID}", func(r chi.Router) {
		r.Post("/content", h.PutDocument)
		r.Get("/content/{scope}/{contentType}/{contentID}", h.GetDocument)
		r.Post("/content/{scope}/{contentType}/{contentID}/assets", h.PutAsset)
		r.Get("/content/{scope}/{contentType}/{contentID}/assets/{kind}/{name}", h.AssetURL)
		r.Post("/exports", h.Export)
	})

	return r
}

// PutDocumentRequest is the request body for storing a document.
type PutDocumentRequest struct {
	Scope       string `json:"scope"`
	OwnerID     string `json:"owner_id,omitempty"`
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Content     string `json:"content"`
}

// PutResponse is the response body for a stored object.
type PutResponse struct {
	Outcome    string `json:"outcome"`
	ObjectKey  string `json:"object_key"`
	VersionID  string `json:"version_id"`
	MD5Hash    string `json:"md5_hash"`
	SHA256Hash string `json:"sha256_hash"`
	SizeBytes  int64  `json:"size_bytes"`
}

// DocumentResponse is the response body for a verified document.
type DocumentResponse struct {
	ObjectKey  string `json:"object_key"`
	VersionID  string `json:"version_id"`
	SHA256Hash string `json:"sha256_hash"`
	Content    string `json:"content"`
}

// ExportRequest is the request body for an export.
type ExportRequest struct {
	UserID string `json:"user_id"`
}

// PutDocument stores a content item's primary document.
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	var req PutDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	ref, ok := h.contentRef(w, r, req.Scope, req.OwnerID, req.ContentType, req.ContentID)
	if !ok {
		return
	}

	outcome, rec, err := h.service.PutDocument(r.Context(), ref, strings.NewReader(req.Content))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, putResponse(outcome, rec))
}

// GetDocument returns a verified, reference-resolved document.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.contentRef(w, r,
		chi.URLParam(r, "scope"), r.URL.Query().Get("owner_id"),
		chi.URLParam(r, "contentType"), chi.URLParam(r, "contentID"))
	if !ok {
		return
	}

	doc, err := h.service.GetDocument(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, DocumentResponse{
		ObjectKey:  doc.Record.ObjectKey,
		VersionID:  doc.Record.VersionID,
		SHA256Hash: doc.Record.SHA256Hash,
		Content:    string(doc.Content),
	})
}

// PutAsset stores a sub-asset from the raw request body. The asset kind
// and name come from query parameters.
func (h *Handler) PutAsset(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.contentRef(w, r,
		chi.URLParam(r, "scope"), r.URL.Query().Get("owner_id"),
		chi.URLParam(r, "contentType"), chi.URLParam(r, "contentID"))
	if !ok {
		return
	}

	kind, ok := assetKind(w, r, r.URL.Query().Get("kind"))
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("asset name is required"))
		return
	}

	outcome, rec, err := h.service.PutAsset(r.Context(), ref, kind, name, r.Body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, putResponse(outcome, rec))
}

// AssetURL verifies an asset and returns a presigned URL for it.
func (h *Handler) AssetURL(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.contentRef(w, r,
		chi.URLParam(r, "scope"), r.URL.Query().Get("owner_id"),
		chi.URLParam(r, "contentType"), chi.URLParam(r, "contentID"))
	if !ok {
		return
	}

	kind, ok := assetKind(w, r, chi.URLParam(r, "kind"))
	if !ok {
		return
	}

	url, err := h.service.AssetURL(r.Context(), ref, kind, chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"url": url, "expires_in": h.service.PresignTTL().String()})
}

// Export runs a full case export for the requesting user.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	caseID, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid case ID"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid user ID"))
		return
	}

	result, err := h.service.Export(r.Context(), evidence.ExportRequest{CaseID: caseID, UserID: userID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func (h *Handler) contentRef(w http.ResponseWriter, r *http.Request, scope, ownerID, contentType, contentID string) (evidence.ContentRef, bool) {
	caseID, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid case ID"))
		return evidence.ContentRef{}, false
	}

	ref := evidence.ContentRef{
		CaseID:      caseID,
		ContentID:   contentID,
		ContentType: evidence.ContentType(contentType),
	}

	switch evidence.Scope(scope) {
	case evidence.ScopeShared:
		ref.Scope = evidence.ScopeShared
	case evidence.ScopePersonal:
		ref.Scope = evidence.ScopePersonal
		owner, err := uuid.Parse(ownerID)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, errors.New("personal content requires a valid owner_id"))
			return evidence.ContentRef{}, false
		}
		ref.OwnerID = owner
	default:
		writeError(w, r, http.StatusBadRequest, errors.New("scope must be personal or shared"))
		return evidence.ContentRef{}, false
	}

	switch ref.ContentType {
	case evidence.ContentTypeNotes, evidence.ContentTypeTabs, evidence.ContentTypeExhibits:
	default:
		writeError(w, r, http.StatusBadRequest, errors.New("unsupported content type"))
		return evidence.ContentRef{}, false
	}

	if ref.ContentID == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("content ID is required"))
		return evidence.ContentRef{}, false
	}
	return ref, true
}

func assetKind(w http.ResponseWriter, r *http.Request, kind string) (objectkey.AssetKind, bool) {
	switch objectkey.AssetKind(kind) {
	case objectkey.KindImage:
		return objectkey.KindImage, true
	case objectkey.KindFile:
		return objectkey.KindFile, true
	default:
		writeError(w, r, http.StatusBadRequest, errors.New("asset kind must be images or files"))
		return "", false
	}
}

func putResponse(outcome evidence.UpsertOutcome, rec *evidence.ObjectRecord) PutResponse {
	return PutResponse{
		Outcome:    string(outcome),
		ObjectKey:  rec.ObjectKey,
		VersionID:  rec.VersionID,
		MD5Hash:    rec.MD5Hash,
		SHA256Hash: rec.SHA256Hash,
		SizeBytes:  rec.SizeBytes,
	}
}

// errorResponse is the JSON error body. The error class lets callers
// distinguish integrity failures from plain not-found without string
// matching.
type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class,omitempty"`
	At    string `json:"at"`
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, evidence.ErrBucketNotFound):
		writeClassedError(w, r, http.StatusServiceUnavailable, "configuration", err)
	case errors.Is(err, evidence.ErrObjectNotFound):
		writeClassedError(w, r, http.StatusNotFound, "not_found", err)
	case errors.Is(err, evidence.ErrIntegrity), errors.Is(err, evidence.ErrRecordNotFound):
		// A missing ledger entry is an integrity failure, not a 404: the
		// blob exists but cannot be trusted.
		slog.Error("integrity failure", "path", r.URL.Path, "error", err)
		writeClassedError(w, r, http.StatusConflict, "integrity", err)
	case errors.Is(err, evidence.ErrHashConflict), errors.Is(err, evidence.ErrUnledgeredObject):
		writeClassedError(w, r, http.StatusConflict, "conflict", err)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeClassedError(w, r, http.StatusInternalServerError, "", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeClassedError(w, r, status, "", err)
}

func writeClassedError(w http.ResponseWriter, r *http.Request, status int, class string, err error) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{
		Error: err.Error(),
		Class: class,
		At:    time.Now().UTC().Format(time.RFC3339),
	})
}
