package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techassets/backend/internal/model"
)

// PgAssetRepository は AssetRepository の PostgreSQL 実装
type PgAssetRepository struct {
	pool *pgxpool.Pool
}

// NewPgAssetRepository は PgAssetRepository を生成する
func NewPgAssetRepository(pool *pgxpool.Pool) *PgAssetRepository {
	return &PgAssetRepository{pool: pool}
}

// Ping は DB 接続を確認する（DB インターフェース実装）
func (r *PgAssetRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const assetSelectCols = `id::text, owner_id::text, urls, created_at, updated_at`

func scanAsset(scan func(...any) error) (*model.AssetRecord, error) {
	var a model.AssetRecord
	if err := scan(&a.ID, &a.OwnerID, &a.URLs, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if a.URLs == nil {
		a.URLs = []string{}
	}
	return &a, nil
}

// FindByOwner は技術者 ID で画像レコードを取得する
func (r *PgAssetRepository) FindByOwner(ctx context.Context, ownerID string) (*model.AssetRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+assetSelectCols+` FROM technician_images WHERE owner_id = $1`, ownerID)
	a, err := scanAsset(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// ListByOwner は技術者 ID に一致する画像レコードをすべて返す
func (r *PgAssetRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.AssetRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assetSelectCols+` FROM technician_images WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*model.AssetRecord
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// AppendURLs は URL を末尾に追加する（レコードが無ければ作成）。
// 上限チェックは同じ文の中で行うので、同時リクエストでも上限を超えない。
func (r *PgAssetRepository) AppendURLs(ctx context.Context, ownerID string, urls []string, limit int) (*model.AssetRecord, error) {
	if len(urls) > limit {
		return nil, ErrQuotaExceeded
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO technician_images (owner_id, urls) VALUES ($1, $2)
		 ON CONFLICT (owner_id) DO UPDATE
		   SET urls = technician_images.urls || EXCLUDED.urls, updated_at = NOW()
		   WHERE cardinality(technician_images.urls) + cardinality(EXCLUDED.urls) <= $3
		 RETURNING `+assetSelectCols,
		ownerID, urls, limit)
	a, err := scanAsset(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuotaExceeded
	}
	return a, err
}

// RemoveURL は指定 URL をリストから取り除く
func (r *PgAssetRepository) RemoveURL(ctx context.Context, ownerID, url string) (*model.AssetRecord, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE technician_images SET urls = array_remove(urls, $2), updated_at = NOW()
		 WHERE owner_id = $1
		 RETURNING `+assetSelectCols,
		ownerID, url)
	a, err := scanAsset(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// DeleteIfEmpty は URL が 0 件のときだけレコードを削除する。
// 条件は同じ文で評価するので、直前に追加された URL は消さない。
func (r *PgAssetRepository) DeleteIfEmpty(ctx context.Context, ownerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM technician_images WHERE owner_id = $1 AND cardinality(urls) = 0`, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByOwner は技術者の画像レコードを削除し、削除件数を返す
func (r *PgAssetRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM technician_images WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
