package validation

import (
	"fmt"

	apperrors "salesprep/internal/errors"
	"salesprep/internal/progress"
	"salesprep/internal/table"
)

// ValidateAfterCleaning checks a cleaned table with the default schema
func ValidateAfterCleaning(t *table.Table) error {
	return NewAssessor(table.DefaultSchema(), nil).ValidateAfterCleaning(t)
}

// ValidateAfterCleaning confirms the cleaned table still has rows and, when a
// date column is bound, at least one valid date.
func (a *Assessor) ValidateAfterCleaning(t *table.Table) error {
	if t.NumRows() == 0 {
		return apperrors.NewEmptyDataError("table is empty after cleaning; check the input data")
	}

	if name, ok := a.Schema.Resolve(t, table.RoleDate); ok {
		col, _ := t.Column(name)
		valid := 0
		for i := 0; i < col.Len(); i++ {
			if table.ValidDate(col, i) {
				valid++
			}
		}
		if valid == 0 {
			return apperrors.NewDataQualityError("no valid dates left after cleaning",
				map[string]float64{"valid_dates": 0})
		}
	}

	progress.OrDiscard(a.Sink).Emit(progress.Event{
		Stage:   "post_clean",
		Level:   progress.LevelInfo,
		Message: fmt.Sprintf("post-clean validation passed: %d valid rows", t.NumRows()),
		Count:   t.NumRows(),
	})
	return nil
}
