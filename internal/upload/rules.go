package upload

import (
	"fmt"
	"strings"

	"github.com/techassets/backend/internal/model"
)

// rule caps how many files one field may carry on a create request.
type rule struct {
	field   string
	max     int
	message string
}

// fixedRules are checked in this order, before the serviceImg_<suffix> fields.
var fixedRules = []rule{
	{field: "serviceImg", max: 1, message: "Only one serviceImg allowed."},
	{field: "category_image", max: 1, message: "Only one category_image allowed."},
	{field: "profileImage", max: 1, message: "Only one profileImage allowed."},
	{field: "photos", max: 5, message: "Maximum 5 photos allowed."},
}

const suffixedServiceImg = "serviceImg_"

// Validate checks per-field cardinality and returns the first violation, or
// "" when the group is acceptable.
func Validate(g *model.FileGroup) string {
	for _, r := range fixedRules {
		if g.Count(r.field) > r.max {
			return r.message
		}
	}
	for _, field := range g.Fields() {
		if strings.HasPrefix(field, suffixedServiceImg) && len(field) > len(suffixedServiceImg) && g.Count(field) > 1 {
			return fmt.Sprintf("Only 1 file allowed for %s", field)
		}
	}
	return ""
}
