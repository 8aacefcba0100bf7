package memory

import (
	"slices"
	"strings"

	"trendzportal/internal/core/id"
	"trendzportal/internal/domain"
)

// page applies the filter's id set, offset and limit to sorted rows.
func page[T any](rows []T, f domain.ListFilter, rowID func(T) id.ID) domain.ListResult[T] {
	f.Normalize()
	if len(f.IDs) > 0 {
		rows = slices.DeleteFunc(rows, func(r T) bool { return !slices.Contains(f.IDs, rowID(r)) })
	}
	total := len(rows)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	return domain.ListResult[T]{
		Items:      rows[start:end],
		TotalCount: int64(total),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func descending(orderBy string) bool {
	return strings.HasPrefix(orderBy, "-")
}
