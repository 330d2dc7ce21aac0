package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator in a filter predicate.
type Op int

const (
	OpEqual Op = iota
	OpNotEqual
	OpIn
)

// Predicate compares one field against one or more values.
type Predicate struct {
	Field  string
	Op     Op
	Values []any
}

// Filter is a conjunction of predicates. The zero Filter matches every row.
//
// Values are store-side: a note path in a filter must already be a key
// produced by EncodePath. Table is the only caller that builds path
// filters.
type Filter struct {
	preds []Predicate
}

// All matches every row.
func All() Filter { return Filter{} }

// ContentNonEmpty matches records carrying real chunk text.
func ContentNonEmpty() Filter {
	return Filter{}.And(Predicate{Field: FieldContent, Op: OpNotEqual, Values: []any{""}})
}

// ContentEmpty matches placeholder records of notes with no content.
func ContentEmpty() Filter {
	return Filter{}.And(Predicate{Field: FieldContent, Op: OpEqual, Values: []any{""}})
}

// NotePathIn matches records whose key is one of keys.
func NotePathIn(keys ...string) Filter {
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = k
	}
	return Filter{}.And(Predicate{Field: FieldNotePath, Op: OpIn, Values: values})
}

// And returns a filter that also requires p.
func (f Filter) And(p Predicate) Filter {
	preds := make([]Predicate, 0, len(f.preds)+1)
	preds = append(preds, f.preds...)
	return Filter{preds: append(preds, p)}
}

// Predicates returns the filter's predicates in order.
func (f Filter) Predicates() []Predicate {
	return f.preds
}

// Expression renders the filter in its textual form, e.g.
// notepath IN ('it''s.md'). Key values are already escaped and are
// written verbatim.
func (f Filter) Expression() string {
	if len(f.preds) == 0 {
		return "true"
	}
	parts := make([]string, len(f.preds))
	for i, p := range f.preds {
		switch p.Op {
		case OpIn:
			lits := make([]string, len(p.Values))
			for j, v := range p.Values {
				lits[j] = literal(v)
			}
			parts[i] = fmt.Sprintf("%s IN (%s)", p.Field, strings.Join(lits, ", "))
		case OpNotEqual:
			parts[i] = fmt.Sprintf("%s != %s", p.Field, literal(first(p.Values)))
		default:
			parts[i] = fmt.Sprintf("%s = %s", p.Field, literal(first(p.Values)))
		}
	}
	return strings.Join(parts, " AND ")
}

// String implements fmt.Stringer for logging.
func (f Filter) String() string { return f.Expression() }

// SQL compiles the filter to a parameterized WHERE clause. columns maps
// field names to column names; a field missing from it is an error.
func (f Filter) SQL(columns map[string]string) (string, []any, error) {
	if len(f.preds) == 0 {
		return "1 = 1", nil, nil
	}

	var args []any
	parts := make([]string, 0, len(f.preds))
	for _, p := range f.preds {
		col, ok := columns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %q", p.Field)
		}
		switch p.Op {
		case OpIn:
			if len(p.Values) == 0 {
				parts = append(parts, "1 = 0")
				continue
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", col, placeholders(len(p.Values))))
			args = append(args, p.Values...)
		case OpNotEqual:
			if len(p.Values) != 1 {
				return "", nil, fmt.Errorf("predicate on %q needs exactly one value", p.Field)
			}
			parts = append(parts, col+" != ?")
			args = append(args, p.Values[0])
		case OpEqual:
			if len(p.Values) != 1 {
				return "", nil, fmt.Errorf("predicate on %q needs exactly one value", p.Field)
			}
			parts = append(parts, col+" = ?")
			args = append(args, p.Values[0])
		default:
			return "", nil, fmt.Errorf("unsupported operator %d", p.Op)
		}
	}
	return strings.Join(parts, " AND "), args, nil
}

// Batches splits the filter so that no IN predicate carries more than limit
// values. The batches together match exactly the rows f matches. A filter
// within the limit is returned as is.
func (f Filter) Batches(limit int) []Filter {
	for i, p := range f.preds {
		if p.Op != OpIn || len(p.Values) <= limit || limit <= 0 {
			continue
		}
		var out []Filter
		for start := 0; start < len(p.Values); start += limit {
			preds := make([]Predicate, len(f.preds))
			copy(preds, f.preds)
			preds[i] = Predicate{
				Field:  p.Field,
				Op:     OpIn,
				Values: p.Values[start:min(start+limit, len(p.Values))],
			}
			out = append(out, Filter{preds: preds}.Batches(limit)...)
		}
		return out
	}
	return []Filter{f}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func first(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + x + "'"
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
