package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/techassets/backend/internal/metrics"
	"github.com/techassets/backend/internal/model"
	"github.com/techassets/backend/internal/repository"
	"github.com/techassets/backend/internal/storage"
)

// PhotosField is the multipart field whose files become owner images.
const PhotosField = "photos"

// AssetService は技術者画像のライフサイクル（追加・取得・削除）のビジネスロジック
type AssetService interface {
	Create(ctx context.Context, ownerID string, files *model.FileGroup) (*model.AssetView, error)
	Get(ctx context.Context, ownerID string) (*model.AssetView, error)
	DeleteAll(ctx context.Context, ownerID string) (*model.BulkDeleteResult, error)
	DeleteOne(ctx context.Context, ownerID, url string) (*model.SingleDeleteResult, error)
}

// FileRemover deletes a staged local file.
type FileRemover interface {
	Remove(ctx context.Context, path string) error
}

// AssetConfig holds the fixed per-deployment settings.
type AssetConfig struct {
	Folder    string // object store folder, e.g. "TechUploadedPhotos"
	MaxImages int    // per-owner quota
}

// AssetServiceImpl は AssetService の実装
type AssetServiceImpl struct {
	assets   repository.AssetRepository
	owners   repository.OwnerRepository
	store    storage.ObjectStore
	files    FileRemover
	observer metrics.Observer
	cfg      AssetConfig
}

// NewAssetService は AssetServiceImpl を生成する
func NewAssetService(
	assets repository.AssetRepository,
	owners repository.OwnerRepository,
	store storage.ObjectStore,
	files FileRemover,
	observer metrics.Observer,
	cfg AssetConfig,
) AssetService {
	if observer == nil {
		observer = metrics.Nop()
	}
	if cfg.Folder == "" {
		cfg.Folder = "TechUploadedPhotos"
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	return &AssetServiceImpl{
		assets:   assets,
		owners:   owners,
		store:    store,
		files:    files,
		observer: observer,
		cfg:      cfg,
	}
}

// checkOwnerID validates presence (missingStatus) and format of ownerID.
func checkOwnerID(ownerID string, missingStatus int, missing, badFormat string) error {
	if ownerID == "" {
		return validationError(missingStatus, "Validation failed", missing)
	}
	if !repository.ValidOwnerID(ownerID) {
		return validationError(http.StatusBadRequest, badFormat, "Provided Technician ID is not valid.")
	}
	return nil
}

// Create uploads the group's photos for ownerID and appends their URLs.
// The quota is checked against the record read before any upload starts.
func (s *AssetServiceImpl) Create(ctx context.Context, ownerID string, files *model.FileGroup) (*model.AssetView, error) {
	if err := checkOwnerID(ownerID, http.StatusUnauthorized, "Technician Id is required.", "Invalid Technician ID format"); err != nil {
		return nil, err
	}
	exists, err := s.owners.Exists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check technician: %w", err)
	}
	if !exists {
		return nil, notFoundError("Technician not found")
	}

	existing, err := s.assets.FindByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load images: %w", err)
	}
	current := 0
	if existing != nil {
		current = len(existing.URLs)
	}

	var photos []*model.UploadedFile
	for _, f := range files.Get(PhotosField) {
		if !f.Discarded {
			photos = append(photos, f)
		}
	}
	if current+len(photos) > s.cfg.MaxImages {
		s.observer.RecordQuotaRejected()
		return nil, quotaError(fmt.Sprintf("You can upload a maximum of %d images total.", s.cfg.MaxImages))
	}
	if len(photos) == 0 {
		if existing != nil {
			return model.ViewOf(existing), nil
		}
		return nil, validationError(http.StatusBadRequest, "Validation failed", "At least one photo is required.")
	}

	uploaded := make([]string, 0, len(photos))
	for i, f := range photos {
		start := time.Now()
		url, err := s.store.Upload(ctx, f.TempPath, s.cfg.Folder)
		s.observer.RecordUpload(time.Since(start), f.Size, err)
		if err != nil {
			return nil, s.partialUpload(ctx, ownerID, uploaded, photos[i:], err)
		}
		if err := s.files.Remove(ctx, f.TempPath); err != nil {
			slog.WarnContext(ctx, "staged file not removed after upload", "path", f.TempPath, "error", err)
		}
		uploaded = append(uploaded, url)
	}

	rec, err := s.assets.AppendURLs(ctx, ownerID, uploaded, s.cfg.MaxImages)
	if errors.Is(err, repository.ErrQuotaExceeded) {
		// Another request for the same owner committed between the check and here.
		s.observer.RecordQuotaRejected()
		s.destroyAll(ctx, uploaded)
		return nil, quotaError(fmt.Sprintf("You can upload a maximum of %d images total.", s.cfg.MaxImages))
	}
	if err != nil {
		slog.ErrorContext(ctx, "uploaded images not recorded", "owner_id", ownerID, "urls", uploaded, "error", err)
		return nil, fmt.Errorf("save images: %w", err)
	}

	slog.InfoContext(ctx, "technician images added", "owner_id", ownerID, "count", len(uploaded), "total", len(rec.URLs))
	return model.ViewOf(rec), nil
}

// partialUpload records what was uploaded before cause and builds the UploadError.
func (s *AssetServiceImpl) partialUpload(ctx context.Context, ownerID string, uploaded []string, pending []*model.UploadedFile, cause error) error {
	uerr := &UploadError{Err: cause, Uploaded: uploaded}
	for _, f := range pending {
		uerr.Pending = append(uerr.Pending, f.OriginalName)
	}
	if len(uploaded) > 0 {
		if _, err := s.assets.AppendURLs(ctx, ownerID, uploaded, s.cfg.MaxImages); err != nil {
			slog.ErrorContext(ctx, "partial upload not recorded", "owner_id", ownerID, "urls", uploaded, "error", err)
		} else {
			uerr.Persisted = true
		}
	}
	slog.WarnContext(ctx, "image upload aborted", "owner_id", ownerID, "uploaded", len(uploaded), "pending", len(pending), "error", cause)
	return uerr
}

// maxConcurrentDestroys bounds the remote deletes in flight for one call.
const maxConcurrentDestroys = 4

// destroyAll deletes the objects behind urls and returns the public ids whose
// delete failed, in url order. A failure never stops the other deletes.
func (s *AssetServiceImpl) destroyAll(ctx context.Context, urls []string) []string {
	ids := make([]string, 0, len(urls))
	for _, u := range urls {
		id, ok := storage.PublicID(u, s.cfg.Folder)
		if !ok {
			slog.DebugContext(ctx, "url has no public id, skipping remote delete", "url", u)
			continue
		}
		ids = append(ids, id)
	}

	failed := make([]bool, len(ids))
	var g errgroup.Group
	g.SetLimit(maxConcurrentDestroys)
	for i, id := range ids {
		g.Go(func() error {
			if err := s.destroy(ctx, id); err != nil {
				slog.WarnContext(ctx, "remote delete failed", "public_id", id, "error", err)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for i, id := range ids {
		if failed[i] {
			out = append(out, id)
		}
	}
	return out
}

// destroy deletes one object; a missing object counts as deleted.
func (s *AssetServiceImpl) destroy(ctx context.Context, publicID string) error {
	start := time.Now()
	err := s.store.Destroy(ctx, publicID)
	if errors.Is(err, storage.ErrObjectNotFound) {
		err = nil
	}
	s.observer.RecordDestroy(time.Since(start), err)
	return err
}

// Get returns the owner's images.
func (s *AssetServiceImpl) Get(ctx context.Context, ownerID string) (*model.AssetView, error) {
	if err := checkOwnerID(ownerID, http.StatusUnauthorized, "Technician ID is required.", "Invalid Technician ID format."); err != nil {
		return nil, err
	}
	rec, err := s.assets.FindByOwner(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("Technician Images not found.", "Technician Images not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	return model.ViewOf(rec), nil
}

// DeleteAll deletes every remote object of the owner, then the metadata.
// Remote failures never stop the metadata delete; they are reported in
// Unreclaimed.
func (s *AssetServiceImpl) DeleteAll(ctx context.Context, ownerID string) (*model.BulkDeleteResult, error) {
	if err := checkOwnerID(ownerID, http.StatusUnauthorized, "Technician ID is required.", "Invalid Technician ID format"); err != nil {
		return nil, err
	}
	records, err := s.assets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	if len(records) == 0 {
		return nil, notFoundError("No Technician Images found for this technician")
	}

	var unreclaimed []string
	for _, rec := range records {
		unreclaimed = append(unreclaimed, s.destroyAll(ctx, rec.URLs)...)
	}
	s.observer.RecordUnreclaimed(len(unreclaimed))

	n, err := s.assets.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete images: %w", err)
	}

	slog.InfoContext(ctx, "technician images deleted", "owner_id", ownerID, "records", n, "unreclaimed", len(unreclaimed))
	return &model.BulkDeleteResult{
		Message:      "All technician images deleted successfully.",
		DeletedCount: n,
		Unreclaimed:  unreclaimed,
	}, nil
}

// DeleteOne deletes url from the owner's images and the object store.
func (s *AssetServiceImpl) DeleteOne(ctx context.Context, ownerID, url string) (*model.SingleDeleteResult, error) {
	if ownerID == "" || url == "" {
		return nil, validationError(http.StatusBadRequest, "Validation failed", "Technician ID and image URL to delete are required.")
	}
	if !repository.ValidOwnerID(ownerID) {
		return nil, validationError(http.StatusBadRequest, "Invalid Technician ID format.")
	}

	rec, err := s.assets.FindByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load images: %w", err)
	}
	if rec == nil || !rec.Contains(url) {
		return nil, notFoundError("Image not found for the given technician.")
	}

	if id, ok := storage.PublicID(url, s.cfg.Folder); ok {
		if err := s.destroy(ctx, id); err != nil {
			return nil, fmt.Errorf("remote delete %s: %w", id, err)
		}
	}

	rec, err = s.assets.RemoveURL(ctx, ownerID, url)
	if err != nil {
		return nil, fmt.Errorf("remove image: %w", err)
	}
	if len(rec.URLs) == 0 {
		// An owner with no images has no record. URLs appended since
		// RemoveURL keep the record alive.
		if _, err := s.assets.DeleteIfEmpty(ctx, ownerID); err != nil {
			return nil, fmt.Errorf("delete empty record: %w", err)
		}
	}

	return &model.SingleDeleteResult{
		Message:         "Image deleted successfully.",
		RemainingImages: append([]string{}, rec.URLs...),
	}, nil
}
