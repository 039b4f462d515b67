package validation

import (
	apperrors "salesprep/internal/errors"
	"salesprep/internal/table"
)

// ValidateSchema checks that every required column is present. It runs before
// any column-specific cleaning. A nil or zero-row table is an EmptyDataError;
// missing columns are reported in the order they were required.
func ValidateSchema(t *table.Table, required []string) error {
	if t == nil {
		return apperrors.NewEmptyDataError("no table to validate")
	}
	if t.NumRows() == 0 {
		return apperrors.NewEmptyDataError("table has no rows")
	}

	var missing []string
	for _, name := range required {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewSchemaValidationError(missing, required)
	}
	return nil
}

// RequiredColumns maps role names to the columns bound in s, so a
// configuration may mix "price" with "precio". A name that is already a
// column of t is kept as written even when it is also a role name; unbound
// roles and plain column names pass through unchanged. t may be nil.
func RequiredColumns(t *table.Table, s table.Schema, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if t != nil && t.Has(n) {
			out = append(out, n)
			continue
		}
		if bound := s.Name(table.Role(n)); bound != "" {
			out = append(out, bound)
			continue
		}
		out = append(out, n)
	}
	return out
}
