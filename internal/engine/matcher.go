package engine

import (
	"bimsight/internal/domain"
	"bimsight/internal/index"
)

// Match pairs each detection, in input order, with the first not yet consumed
// element of its category in index order. It is a greedy first-fit, not a
// nearest or optimal assignment: reordering detections or index entries can
// change the result. Deviation is left unset; see Evaluator.
func Match(detections []domain.Detection, idx *index.Index, keywords KeywordTable) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, len(detections))
	// elements are consumed strictly in insertion order, so a cursor per
	// category is enough to track what is still available
	next := make(map[domain.Category]int)

	for _, det := range detections {
		category := keywords.Classify(det.Class)
		result := domain.MatchResult{
			Detection: det,
			Category:  category,
		}

		if category != domain.CategoryOther {
			elems := idx.Elements(category)
			if i := next[category]; i < len(elems) {
				elem := elems[i]
				result.Element = &elem
				next[category] = i + 1
			}
		}

		results = append(results, result)
	}

	return results
}
