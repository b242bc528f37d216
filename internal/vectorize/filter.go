package vectorize

import (
	"notewise/internal/ai"
)

// Filter restricts a similarity query to vectors whose indexed metadata
// matches. Each entry maps an allow-listed field name to either a literal
// value or a map of comparison operators to values.
type Filter map[string]any

// Allowed operator sets. Range operators cannot be combined with
// equality or membership operators on the same field.
var (
	equalityOperators = map[string]bool{
		"$eq":  true,
		"$ne":  true,
		"$in":  true,
		"$nin": true,
	}
	rangeOperators = map[string]bool{
		"$lt":  true,
		"$lte": true,
		"$gt":  true,
		"$gte": true,
	}
)

// allowedFields is the set of indexed metadata fields the remote index
// can filter on.
var allowedFields = map[string]bool{
	"type":          true,
	"extension":     true,
	"createdYear":   true,
	"createdMonth":  true,
	"modifiedYear":  true,
	"modifiedMonth": true,
}

// Validate checks the filter against the field and operator allow-lists
// before it is ever sent over the wire.
func (f Filter) Validate() error {
	for field, condition := range f {
		if !allowedFields[field] {
			return ai.NewValidationError(field, "", "field is not filterable")
		}

		operators, ok := condition.(map[string]any)
		if !ok {
			// Literal value, shorthand for $eq.
			continue
		}

		hasEquality := false
		hasRange := false
		for op := range operators {
			switch {
			case equalityOperators[op]:
				hasEquality = true
			case rangeOperators[op]:
				hasRange = true
			default:
				return ai.NewValidationError(field, op, "unknown filter operator")
			}
		}

		if hasEquality && hasRange {
			return ai.NewValidationError(field, "", "range operators cannot be combined with equality operators on the same field")
		}
	}
	return nil
}
