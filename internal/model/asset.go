package model

import "time"

// AssetRecord は技術者ごとの画像 URL リスト（1 技術者につき 1 行）
type AssetRecord struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"technicianId"`
	URLs      []string  `json:"imageUrl"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether url is an exact member of the record's URL list.
func (r *AssetRecord) Contains(url string) bool {
	for _, u := range r.URLs {
		if u == url {
			return true
		}
	}
	return false
}

// AssetView is the projection returned to callers after create and fetch.
type AssetView struct {
	ID      string   `json:"id"`
	OwnerID string   `json:"technicianId"`
	URLs    []string `json:"imageUrl"`
}

// ViewOf projects a record into an AssetView.
func ViewOf(r *AssetRecord) *AssetView {
	urls := r.URLs
	if urls == nil {
		urls = []string{}
	}
	return &AssetView{ID: r.ID, OwnerID: r.OwnerID, URLs: urls}
}

// BulkDeleteResult is returned by the delete-all flow.
// Unreclaimed lists remote public ids whose delete call failed.
type BulkDeleteResult struct {
	Message      string   `json:"message"`
	DeletedCount int64    `json:"deletedCount"`
	Unreclaimed  []string `json:"unreclaimed,omitempty"`
}

// SingleDeleteResult is returned by the single-image delete flow.
type SingleDeleteResult struct {
	Message         string   `json:"message"`
	RemainingImages []string `json:"remainingImages"`
}
