package repository

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryAssetRepository_AppendCreatesThenAppends(t *testing.T) {
	repo := NewMemoryAssetRepository()
	ctx := context.Background()

	first, err := repo.AppendURLs(ctx, "owner-1", []string{"u1", "u2"}, 5)
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if first.ID == "" {
		t.Error("expected ID to be set on create")
	}

	second, err := repo.AppendURLs(ctx, "owner-1", []string{"u3"}, 5)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same record id, got %q and %q", first.ID, second.ID)
	}
	want := []string{"u1", "u2", "u3"}
	if len(second.URLs) != len(want) {
		t.Fatalf("expected %v, got %v", want, second.URLs)
	}
	for i := range want {
		if second.URLs[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, second.URLs[i], want[i])
		}
	}
}

func TestMemoryAssetRepository_AppendOverLimitWritesNothing(t *testing.T) {
	repo := NewMemoryAssetRepository()
	ctx := context.Background()

	if _, err := repo.AppendURLs(ctx, "owner-1", []string{"u1", "u2", "u3"}, 5); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := repo.AppendURLs(ctx, "owner-1", []string{"u4", "u5", "u6"}, 5)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	got, _ := repo.FindByOwner(ctx, "owner-1")
	if len(got.URLs) != 3 {
		t.Errorf("expected 3 urls after rejected append, got %d", len(got.URLs))
	}

	if _, err := repo.AppendURLs(ctx, "owner-2", []string{"a", "b", "c", "d", "e", "f"}, 5); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded on create, got %v", err)
	}
	if _, err := repo.FindByOwner(ctx, "owner-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected no record for owner-2, got %v", err)
	}
}

func TestMemoryAssetRepository_FindReturnsCopy(t *testing.T) {
	repo := NewMemoryAssetRepository()
	ctx := context.Background()
	_, _ = repo.AppendURLs(ctx, "owner-1", []string{"u1"}, 5)

	got, _ := repo.FindByOwner(ctx, "owner-1")
	got.URLs[0] = "mutated"

	again, _ := repo.FindByOwner(ctx, "owner-1")
	if again.URLs[0] != "u1" {
		t.Errorf("stored state mutated through returned record: %v", again.URLs)
	}
}

func TestMemoryAssetRepository_RemoveURL(t *testing.T) {
	repo := NewMemoryAssetRepository()
	ctx := context.Background()
	_, _ = repo.AppendURLs(ctx, "owner-1", []string{"u1", "u2", "u3"}, 5)

	got, err := repo.RemoveURL(ctx, "owner-1", "u2")
	if err != nil {
		t.Fatalf("RemoveURL: %v", err)
	}
	if len(got.URLs) != 2 || got.URLs[0] != "u1" || got.URLs[1] != "u3" {
		t.Errorf("unexpected urls after remove: %v", got.URLs)
	}

	if _, err := repo.RemoveURL(ctx, "owner-x", "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestMemoryAssetRepository_DeleteByOwner(t *testing.T) {
	repo := NewMemoryAssetRepository()
	ctx := context.Background()
	_, _ = repo.AppendURLs(ctx, "owner-1", []string{"u1"}, 5)

	n, err := repo.DeleteByOwner(ctx, "owner-1")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d (err=%v)", n, err)
	}
	n, err = repo.DeleteByOwner(ctx, "owner-1")
	if err != nil || n != 0 {
		t.Errorf("expected 0 deleted on second call, got %d (err=%v)", n, err)
	}
	records, _ := repo.ListByOwner(ctx, "owner-1")
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestMemoryAssetRepository_DeleteIfEmpty(t *testing.T) {
	repo := NewMemoryAssetRepository()
	ctx := context.Background()
	_, _ = repo.AppendURLs(ctx, "owner-1", []string{"u1"}, 5)

	if deleted, err := repo.DeleteIfEmpty(ctx, "owner-1"); err != nil || deleted {
		t.Fatalf("record with urls must stay, deleted=%v err=%v", deleted, err)
	}
	_, _ = repo.RemoveURL(ctx, "owner-1", "u1")
	if deleted, err := repo.DeleteIfEmpty(ctx, "owner-1"); err != nil || !deleted {
		t.Fatalf("expected empty record deleted, deleted=%v err=%v", deleted, err)
	}
	if deleted, _ := repo.DeleteIfEmpty(ctx, "owner-1"); deleted {
		t.Error("expected nothing to delete on second call")
	}
}

func TestMemoryOwnerRepository_Exists(t *testing.T) {
	repo := NewMemoryOwnerRepository("a")
	ctx := context.Background()
	if ok, _ := repo.Exists(ctx, "a"); !ok {
		t.Error("expected a to exist")
	}
	if ok, _ := repo.Exists(ctx, "b"); ok {
		t.Error("expected b to be unknown")
	}
	repo.Add("b")
	if ok, _ := repo.Exists(ctx, "b"); !ok {
		t.Error("expected b to exist after Add")
	}
}

func TestValidOwnerID(t *testing.T) {
	tests := map[string]bool{
		"3f1c2a4e-9b7d-4c1e-8a2f-5d6e7f809a1b":          true,
		"3F1C2A4E-9B7D-4C1E-8A2F-5D6E7F809A1B":          true,
		"":                                              false,
		"not-an-id":                                     false,
		"3f1c2a4e9b7d4c1e8a2f5d6e7f809a1b":              false,
		"{3f1c2a4e-9b7d-4c1e-8a2f-5d6e7f809a1b}":        false,
		"urn:uuid:3f1c2a4e-9b7d-4c1e-8a2f-5d6e7f809a1b": false,
	}
	for id, want := range tests {
		if got := ValidOwnerID(id); got != want {
			t.Errorf("ValidOwnerID(%q) = %v, want %v", id, got, want)
		}
	}
}
