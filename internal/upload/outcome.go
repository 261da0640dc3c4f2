package upload

import (
	"context"

	"github.com/techassets/backend/internal/model"
)

// Outcome is what the gate attaches to a multipart request: either the
// validated file group or a single failure message, never both.
type Outcome struct {
	Group *model.FileGroup
	Err   string

	// Rejected holds the files dropped for their MIME type. They are never staged.
	Rejected []*model.UploadedFile
	// Values holds the non-file form fields.
	Values map[string][]string
}

// OK reports whether the outcome carries a file group.
func (o *Outcome) OK() bool { return o != nil && o.Err == "" }

type contextKey string

const outcomeKey contextKey = "upload_outcome"

// FromContext は context からアップロード結果を取得する
func FromContext(ctx context.Context) (*Outcome, bool) {
	o, ok := ctx.Value(outcomeKey).(*Outcome)
	return o, ok
}

// WithOutcome は context にアップロード結果をセットする
func WithOutcome(ctx context.Context, o *Outcome) context.Context {
	return context.WithValue(ctx, outcomeKey, o)
}
