package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgOwnerRepository は OwnerRepository の PostgreSQL 実装（technicians テーブル参照のみ）
type PgOwnerRepository struct {
	pool *pgxpool.Pool
}

// NewPgOwnerRepository は PgOwnerRepository を生成する
func NewPgOwnerRepository(pool *pgxpool.Pool) *PgOwnerRepository {
	return &PgOwnerRepository{pool: pool}
}

// Exists は技術者が存在するかを返す
func (r *PgOwnerRepository) Exists(ctx context.Context, ownerID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM technicians WHERE id = $1)`, ownerID).Scan(&exists)
	return exists, err
}
