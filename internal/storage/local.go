package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// LocalStore はローカルファイルシステムにオブジェクトを保存する ObjectStore 実装。
// 開発環境で S3 互換ストレージの代わりに使う。
type LocalStore struct {
	baseDir   string // ディスク上のルートディレクトリ (例: "./objects")
	urlPrefix string // HTTP で配信する際の URL プレフィックス (例: "/objects")
}

// NewLocalStore は LocalStore を生成する。
func NewLocalStore(baseDir, urlPrefix string) *LocalStore {
	return &LocalStore{baseDir: baseDir, urlPrefix: urlPrefix}
}

func (s *LocalStore) Upload(_ context.Context, localPath, folder string) (string, error) {
	key, _ := objectKey(localPath, folder)
	dest := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("storage: open: %w", err)
	}
	defer src.Close()

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return "", fmt.Errorf("storage: write: %w", err)
	}

	return s.urlPrefix + "/" + key, nil
}

func (s *LocalStore) Destroy(_ context.Context, publicID string) error {
	pattern := filepath.Join(s.baseDir, filepath.FromSlash(publicID)) + ".*"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("storage: glob: %w", err)
	}
	stem := path.Base(publicID)
	found := 0
	for _, m := range matches {
		if !hasPublicID(filepath.Base(m), stem) {
			continue
		}
		found++
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("storage: remove: %w", err)
		}
	}
	if found == 0 {
		return ErrObjectNotFound
	}
	return nil
}
