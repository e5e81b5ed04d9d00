package engine

import (
	"strings"

	"bimsight/internal/domain"
)

// KeywordRule maps a set of detector class keywords onto a model category
type KeywordRule struct {
	Category domain.Category `json:"category" yaml:"category"`
	Keywords []string        `json:"keywords" yaml:"keywords"`
}

// KeywordTable is tested in order; the first rule with a matching keyword wins
type KeywordTable []KeywordRule

// DefaultKeywords returns the stock class table. "person" and "chair" stand in
// for walls and beams so a stock COCO detector can drive the engine.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		{Category: domain.CategoryWall, Keywords: []string{"wall", "parede", "person"}},
		{Category: domain.CategoryBeam, Keywords: []string{"beam", "viga", "chair"}},
	}
}

// Classify returns the category for a detector class label.
// A keyword matches when either string contains the other, case-insensitively;
// the looseness is intentional ("chairwoman" is a beam). Empty labels never match.
func (kt KeywordTable) Classify(label string) domain.Category {
	lower := strings.ToLower(label)
	if lower == "" {
		return domain.CategoryOther
	}
	for _, rule := range kt {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if strings.Contains(lower, kw) || strings.Contains(kw, lower) {
				return rule.Category
			}
		}
	}
	return domain.CategoryOther
}
