package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/techassets/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// AssetRepository は技術者画像レコードの永続化インターフェース
type AssetRepository interface {
	// FindByOwner returns ErrNotFound when the owner has no record.
	FindByOwner(ctx context.Context, ownerID string) (*model.AssetRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.AssetRecord, error)
	// AppendURLs appends urls to the owner's record, creating it if needed.
	// It returns ErrQuotaExceeded, writing nothing, if the result would hold
	// more than limit URLs.
	AppendURLs(ctx context.Context, ownerID string, urls []string, limit int) (*model.AssetRecord, error)
	// RemoveURL removes every occurrence of url and returns the updated record.
	RemoveURL(ctx context.Context, ownerID, url string) (*model.AssetRecord, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	// DeleteIfEmpty deletes the owner's record only if its URL list is empty
	// at the moment of the delete. It reports whether a record was deleted.
	DeleteIfEmpty(ctx context.Context, ownerID string) (bool, error)
}

// OwnerRepository は画像の所有者（技術者）の存在確認インターフェース
type OwnerRepository interface {
	Exists(ctx context.Context, ownerID string) (bool, error)
}

// ValidOwnerID reports whether id is a canonical UUID string.
func ValidOwnerID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
