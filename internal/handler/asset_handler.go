package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/techassets/backend/internal/model"
	"github.com/techassets/backend/internal/service"
	"github.com/techassets/backend/internal/upload"
)

// AssetHandler は技術者画像 API の HTTP ハンドラ
type AssetHandler struct {
	svc service.AssetService
}

// NewAssetHandler は AssetHandler を生成する
func NewAssetHandler(svc service.AssetService) *AssetHandler {
	return &AssetHandler{svc: svc}
}

// Create は POST /api/technicians/{id}/images を処理する（upload.Gate の後段）
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var files *model.FileGroup
	if outcome, ok := upload.FromContext(r.Context()); ok {
		if !outcome.OK() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": outcome.Err})
			return
		}
		files = outcome.Group
	}

	view, err := h.svc.Create(r.Context(), r.PathValue("id"), files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get は GET /api/technicians/{id}/images を処理する
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteAll は DELETE /api/technicians/{id}/images を処理する
func (h *AssetHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DeleteAll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type deleteOneRequest struct {
	ImageURL string `json:"imageUrl"`
}

// DeleteOne は DELETE /api/technicians/{id}/images/one を処理する。
// 対象 URL は JSON ボディ、multipart フィールド、クエリの順に探す。
func (h *AssetHandler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	target := ""
	if outcome, ok := upload.FromContext(r.Context()); ok {
		if v := outcome.Values["imageUrl"]; len(v) > 0 {
			target = v[0]
		}
	} else if r.Body != nil && r.ContentLength != 0 {
		var req deleteOneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			target = req.ImageURL
		}
	}
	if target == "" {
		target = r.URL.Query().Get("imageUrl")
	}

	res, err := h.svc.DeleteOne(r.Context(), r.PathValue("id"), target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error    string   `json:"error"`
	Errors   []string `json:"errors,omitempty"`
	Uploaded []string `json:"uploaded,omitempty"`
	Pending  []string `json:"pending,omitempty"`
}

// writeError maps service errors to their status; anything else is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		writeJSON(w, se.StatusCode(), errorResponse{Error: se.Message, Errors: se.Details})
		return
	}
	var ue *service.UploadError
	if errors.As(err, &ue) {
		writeJSON(w, ue.StatusCode(), errorResponse{
			Error:    "Image upload failed.",
			Uploaded: ue.Uploaded,
			Pending:  ue.Pending,
		})
		return
	}
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
}
