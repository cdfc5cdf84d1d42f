package services

import (
	"github.com/licitaware/editais-core/internal/core/domain"
)

// MergeBlockResults flattens each block result and deep-merges the data
// contributions in the fixed block order, accumulating evidence in a
// separate tree keyed by block. Keeping the two trees apart avoids the
// string-vs-object conflicts threading evidence through the data merge
// would create.
func MergeBlockResults(results []domain.BlockResult) (domain.Checklist, map[string]any) {
	byKey := make(map[string]domain.BlockResult, len(results))
	for _, r := range results {
		byKey[r.Key] = r
	}

	acc := map[string]any{}
	evidence := map[string]any{}
	for _, block := range domain.Blocks() {
		result, ok := byKey[block.Key]
		if !ok {
			continue
		}
		flat, ev := block.Flatten(result.Raw)
		deepMerge(acc, flat)
		if len(ev) > 0 {
			evidence[block.Key] = ev
		}
	}
	return domain.Checklist(acc), evidence
}

// deepMerge folds src into dst. An existing value survives unless it is
// empty ("", nil or absent); maps merge recursively; lists are replaced
// wholesale by the later contribution.
func deepMerge(dst, src map[string]any) {
	for key, sv := range src {
		dv, exists := dst[key]

		switch typed := sv.(type) {
		case map[string]any:
			if existing, ok := dv.(map[string]any); ok {
				deepMerge(existing, typed)
				continue
			}
			if !exists || isEmptyValue(dv) {
				dst[key] = typed
			}
		case []any:
			dst[key] = typed
		default:
			if !exists || isEmptyValue(dv) {
				dst[key] = sv
			}
		}
	}
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
