package upload

import (
	"testing"

	"github.com/techassets/backend/internal/model"
)

func group(counts ...any) *model.FileGroup {
	g := model.NewFileGroup(nil)
	for i := 0; i < len(counts); i += 2 {
		field := counts[i].(string)
		for n := 0; n < counts[i+1].(int); n++ {
			g.Add(&model.UploadedFile{FieldName: field})
		}
	}
	return g
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		g    *model.FileGroup
		want string
	}{
		{"empty", group(), ""},
		{"within limits", group("photos", 5, "serviceImg", 1, "category_image", 1, "profileImage", 1, "serviceImg_a", 1), ""},
		{"serviceImg", group("serviceImg", 2), "Only one serviceImg allowed."},
		{"category_image", group("category_image", 2), "Only one category_image allowed."},
		{"profileImage", group("profileImage", 2), "Only one profileImage allowed."},
		{"photos", group("photos", 6), "Maximum 5 photos allowed."},
		{"suffixed", group("serviceImg_front", 2), "Only 1 file allowed for serviceImg_front"},
		{"first suffixed wins", group("serviceImg_b", 2, "serviceImg_a", 2), "Only 1 file allowed for serviceImg_b"},
		{"fixed order beats arrival order", group("photos", 6, "serviceImg", 2), "Only one serviceImg allowed."},
		{"fixed rules before suffixed", group("serviceImg_x", 3, "photos", 7), "Maximum 5 photos allowed."},
		{"bare prefix is not suffixed", group("serviceImg_", 3), ""},
		{"unknown field unlimited", group("other", 9), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.g); got != tt.want {
				t.Errorf("Validate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate_NilGroup(t *testing.T) {
	if got := Validate(nil); got != "" {
		t.Errorf("expected no violation for nil group, got %q", got)
	}
}
