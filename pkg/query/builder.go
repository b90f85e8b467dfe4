package query

import (
	"fmt"
	"strings"
)

type condition struct {
	column string
	arg    any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the view property name; Descending selects DESC.
type SortField struct {
	Field      string
	Descending bool
}

// Builder constructs SQL queries with automatic parameter numbering.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses a comma-separated sort string into a SortField slice.
// Fields prefixed with "-" are descending. Example: "calories,-logged_at".
// Returns nil for empty input.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	fields := make([]SortField, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if after, ok := strings.CutPrefix(part, "-"); ok {
			fields = append(fields, SortField{Field: after, Descending: true})
		} else {
			fields = append(fields, SortField{Field: part})
		}
	}

	return fields
}

// WhereEquals adds an equality condition on a projected field. Unknown
// fields return an error from the build methods.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	b.conditions = append(b.conditions, condition{column: field, arg: value})
	return b
}

// OrderByFields sets the sort order, overriding default sort fields.
// Fields that are not projected are ignored.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any, error) {
	where, args, err := b.buildWhere()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args, nil
}

// BuildPage returns a paginated SELECT query with ordering, limit, and offset.
func (b *Builder) BuildPage(page, pageSize int) (string, []any, error) {
	where, args, err := b.buildWhere()
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.buildOrderBy(),
		pageSize,
		(page-1)*pageSize,
	)
	return sql, args, nil
}

func (b *Builder) buildOrderBy() string {
	parts := b.orderParts(b.sort)
	if len(parts) == 0 {
		parts = b.orderParts(b.defaultSort)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) orderParts(fields []SortField) []string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return parts
}

func (b *Builder) buildWhere() (string, []any, error) {
	if len(b.conditions) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, len(b.conditions))
	args := make([]any, len(b.conditions))

	for i, cond := range b.conditions {
		col, ok := b.projection.Column(cond.column)
		if !ok {
			return "", nil, fmt.Errorf("query: unknown field %q", cond.column)
		}
		clauses[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args[i] = cond.arg
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}
