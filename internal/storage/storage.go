package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Destroy when nothing exists under the public id.
// Callers treat it as success: destroy is idempotent.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStore は画像ファイルのリモート保存・削除を抽象化するインターフェース。
// S3 互換ストレージ実装の他、ローカルファイルシステム実装に差し替え可能。
type ObjectStore interface {
	// Upload は localPath のファイルを folder 配下に保存し、公開 URL を返す。
	// The URL's final path segment is "<stem><ext>" where folder+"/"+stem is
	// the public id accepted by Destroy.
	Upload(ctx context.Context, localPath, folder string) (url string, err error)

	// Destroy は publicID に対応するオブジェクトを削除する。
	Destroy(ctx context.Context, publicID string) error
}
