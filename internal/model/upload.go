package model

// UploadedFile describes one multipart file part staged on local disk.
type UploadedFile struct {
	FieldName    string `json:"fieldname"`
	TempPath     string `json:"path"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	OriginalName string `json:"originalname"`

	// Discarded is set when the part was rejected (wrong MIME type).
	// A discarded file is never handed to the object store.
	Discarded bool `json:"-"`
}

// FileGroup maps a multipart field name to its files in arrival order.
// Field order is kept separately so iteration is deterministic.
type FileGroup struct {
	fields []string
	files  map[string][]*UploadedFile
}

// NewFileGroup groups files by field name, keeping arrival order within each
// field and first-seen order across fields.
func NewFileGroup(files []*UploadedFile) *FileGroup {
	g := &FileGroup{files: make(map[string][]*UploadedFile)}
	for _, f := range files {
		g.Add(f)
	}
	return g
}

// Add appends f under its field name.
func (g *FileGroup) Add(f *UploadedFile) {
	if g.files == nil {
		g.files = make(map[string][]*UploadedFile)
	}
	if _, ok := g.files[f.FieldName]; !ok {
		g.fields = append(g.fields, f.FieldName)
	}
	g.files[f.FieldName] = append(g.files[f.FieldName], f)
}

// Get returns the files for field, or nil.
func (g *FileGroup) Get(field string) []*UploadedFile {
	if g == nil {
		return nil
	}
	return g.files[field]
}

// Count returns the number of files under field.
func (g *FileGroup) Count(field string) int {
	return len(g.Get(field))
}

// Fields returns the field names in first-seen order.
func (g *FileGroup) Fields() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.fields))
	copy(out, g.fields)
	return out
}

// All returns every file in field order.
func (g *FileGroup) All() []*UploadedFile {
	if g == nil {
		return nil
	}
	var out []*UploadedFile
	for _, name := range g.fields {
		out = append(out, g.files[name]...)
	}
	return out
}
