package upload

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/techassets/backend/internal/model"
	"github.com/techassets/backend/internal/staging"
)

// DefaultMaxFileSize is the per-file cap (5 MiB).
const DefaultMaxFileSize = 5 << 20

const (
	msgFileTooLarge = "File too large"
	msgBadType      = "Only JPEG/PNG images allowed."
	msgTooManyParts = "Too many files or fields"
	maxValueSize    = 1 << 20

	// maxParts bounds file and value parts per request, rejected ones included.
	maxParts = 20
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Gate is multipart middleware. It stages file parts on local disk, drops
// non-image parts, groups files by field and, for POST requests, enforces
// per-field cardinality. The result is attached to the request context as an
// *Outcome. The gate never writes a response itself.
type Gate struct {
	dir         *staging.Dir
	janitor     *staging.Janitor
	maxFileSize int64
}

// NewGate は Gate を生成する。maxFileSize <= 0 means DefaultMaxFileSize.
func NewGate(dir *staging.Dir, janitor *staging.Janitor, maxFileSize int64) *Gate {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Gate{dir: dir, janitor: janitor, maxFileSize: maxFileSize}
}

// Middleware wraps next. Once next returns, any staged file still on disk
// is removed, whatever path the request took.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMultipart(r) {
			next.ServeHTTP(w, r)
			return
		}

		outcome, staged := g.receive(r)
		if outcome.Err == "" && r.Method == http.MethodPost {
			if msg := Validate(outcome.Group); msg != "" {
				outcome.Err = msg
				outcome.Group = nil
			}
		}
		defer func() {
			if n := g.janitor.Sweep(r.Context(), staged); n > 0 {
				slog.DebugContext(r.Context(), "staged files swept", "count", n)
			}
		}()

		next.ServeHTTP(w, r.WithContext(WithOutcome(r.Context(), outcome)))
	})
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// receive reads every part of the request. On a read or size failure it stops,
// clears the group and returns the failure message; staged files are still
// returned so the caller can remove them.
func (g *Gate) receive(r *http.Request) (*Outcome, []*model.UploadedFile) {
	outcome := &Outcome{Values: make(map[string][]string)}
	var staged []*model.UploadedFile

	mr, err := r.MultipartReader()
	if err != nil {
		outcome.Err = err.Error()
		return outcome, nil
	}

	for parts := 0; ; parts++ {
		part, err := mr.NextPart()
		// A truncated body comes back as a wrapped EOF; only a bare EOF ends the form.
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.WarnContext(r.Context(), "multipart read failed", "error", err)
			outcome.Err = err.Error()
			return outcome, staged
		}
		if parts >= maxParts {
			part.Close()
			slog.WarnContext(r.Context(), "multipart part limit reached", "limit", maxParts)
			outcome.Err = msgTooManyParts
			return outcome, staged
		}

		field := part.FormName()
		if part.FileName() == "" {
			b, err := io.ReadAll(io.LimitReader(part, maxValueSize))
			part.Close()
			if err != nil {
				outcome.Err = err.Error()
				return outcome, staged
			}
			outcome.Values[field] = append(outcome.Values[field], string(b))
			continue
		}

		desc := &model.UploadedFile{
			FieldName:    field,
			MimeType:     part.Header.Get("Content-Type"),
			OriginalName: part.FileName(),
		}
		if !allowedTypes[desc.MimeType] {
			desc.Discarded = true
			outcome.Rejected = append(outcome.Rejected, desc)
			slog.InfoContext(r.Context(), msgBadType, "field", field, "mimetype", desc.MimeType)
			part.Close()
			continue
		}

		if err := g.stage(part, desc); err != nil {
			part.Close()
			if desc.TempPath != "" {
				staged = append(staged, desc)
			}
			outcome.Err = err.Error()
			return outcome, staged
		}
		part.Close()
		staged = append(staged, desc)
	}

	outcome.Group = model.NewFileGroup(staged)
	return outcome, staged
}

type tooLargeError struct{}

func (tooLargeError) Error() string { return msgFileTooLarge }

// stage copies the part to a new staging file and fills in TempPath and Size.
func (g *Gate) stage(part io.Reader, desc *model.UploadedFile) error {
	f, err := g.dir.Create(desc.FieldName, desc.OriginalName)
	if err != nil {
		return fmt.Errorf("stage %s: %w", desc.FieldName, err)
	}
	desc.TempPath = f.Name()
	n, err := io.Copy(f, io.LimitReader(part, g.maxFileSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	desc.Size = n
	if err != nil {
		return err
	}
	if n > g.maxFileSize {
		return tooLargeError{}
	}
	return nil
}
