// Package query builds edge filters once and evaluates them two ways: against
// in-memory edges and as a parameterized SQL WHERE clause. Both renderings of a
// predicate agree on every row, including rows with NULL columns.
package query

import (
	"strconv"
	"strings"

	"linkage/internal/relationship/models"
)

// Predicate is a boolean condition over an edge.
type Predicate interface {
	// Match evaluates the predicate against an edge held in memory.
	Match(e *models.Edge) bool
	// SQL renders the predicate, binding values through args.
	SQL(args *Args) string
}

// Args collects positional SQL arguments.
type Args struct {
	values []any
}

// Add binds v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// Values returns the bound arguments in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Len returns the number of bound arguments.
func (a *Args) Len() int {
	return len(a.values)
}

// Op is a comparison operator.
type Op int

const (
	LT Op = iota
	LTE
	GT
	GTE
)

func (o Op) sql() string {
	switch o {
	case LT:
		return "<"
	case LTE:
		return "<="
	case GT:
		return ">"
	default:
		return ">="
	}
}

func (o Op) holds(c int) bool {
	switch o {
	case LT:
		return c < 0
	case LTE:
		return c <= 0
	case GT:
		return c > 0
	default:
		return c >= 0
	}
}

// Field describes an edge column: how to read it in memory and how to order its values.
// A getter returning ok=false means the column is NULL.
type Field[T any] struct {
	Column  string
	get     func(*models.Edge) (T, bool)
	compare func(a, b T) int
}

// NewField declares a field.
func NewField[T any](column string, get func(*models.Edge) (T, bool), compare func(a, b T) int) Field[T] {
	return Field[T]{Column: column, get: get, compare: compare}
}

// Value reads the field from an edge.
func (f Field[T]) Value(e *models.Edge) (T, bool) {
	return f.get(e)
}

type funcPredicate struct {
	match func(*models.Edge) bool
	sql   func(*Args) string
}

func (p funcPredicate) Match(e *models.Edge) bool { return p.match(e) }
func (p funcPredicate) SQL(args *Args) string     { return p.sql(args) }

// Equals matches rows where the field equals v. NULL never matches.
func Equals[T any](f Field[T], v T) Predicate {
	return funcPredicate{
		match: func(e *models.Edge) bool {
			got, ok := f.get(e)
			return ok && f.compare(got, v) == 0
		},
		sql: func(a *Args) string {
			return f.Column + " = " + a.Add(v)
		},
	}
}

// In matches rows where the field equals one of vs. An empty set matches nothing.
func In[T any](f Field[T], vs ...T) Predicate {
	if len(vs) == 0 {
		return False()
	}
	if len(vs) == 1 {
		return Equals(f, vs[0])
	}
	return funcPredicate{
		match: func(e *models.Edge) bool {
			got, ok := f.get(e)
			if !ok {
				return false
			}
			for _, v := range vs {
				if f.compare(got, v) == 0 {
					return true
				}
			}
			return false
		},
		sql: func(a *Args) string {
			ph := make([]string, len(vs))
			for i, v := range vs {
				ph[i] = a.Add(v)
			}
			return f.Column + " IN (" + strings.Join(ph, ", ") + ")"
		},
	}
}

// Cmp matches rows where "field op v" holds. NULL never matches.
func Cmp[T any](f Field[T], op Op, v T) Predicate {
	return funcPredicate{
		match: func(e *models.Edge) bool {
			got, ok := f.get(e)
			return ok && op.holds(f.compare(got, v))
		},
		sql: func(a *Args) string {
			return f.Column + " " + op.sql() + " " + a.Add(v)
		},
	}
}

// Range matches lo <= field <= hi; a nil bound is open. With both bounds nil it
// matches everything.
func Range[T any](f Field[T], lo, hi *T) Predicate {
	var parts []Predicate
	if lo != nil {
		parts = append(parts, Cmp(f, GTE, *lo))
	}
	if hi != nil {
		parts = append(parts, Cmp(f, LTE, *hi))
	}
	return And(parts...)
}

// IsNull matches rows where the field is NULL.
func IsNull[T any](f Field[T]) Predicate {
	return funcPredicate{
		match: func(e *models.Edge) bool {
			_, ok := f.get(e)
			return !ok
		},
		sql: func(*Args) string {
			return f.Column + " IS NULL"
		},
	}
}

// NotNull matches rows where the field is set.
func NotNull[T any](f Field[T]) Predicate {
	return funcPredicate{
		match: func(e *models.Edge) bool {
			_, ok := f.get(e)
			return ok
		},
		sql: func(*Args) string {
			return f.Column + " IS NOT NULL"
		},
	}
}

// Contains matches rows where any of fields contains text, case-insensitively.
func Contains(text string, fields ...Field[string]) Predicate {
	if text == "" {
		return True()
	}
	needle := strings.ToLower(text)
	return funcPredicate{
		match: func(e *models.Edge) bool {
			for _, f := range fields {
				if v, ok := f.get(e); ok && strings.Contains(strings.ToLower(v), needle) {
					return true
				}
			}
			return false
		},
		sql: func(a *Args) string {
			if len(fields) == 0 {
				return "FALSE"
			}
			ph := a.Add("%" + escapeLike(text) + "%")
			clauses := make([]string, len(fields))
			for i, f := range fields {
				clauses[i] = f.Column + " ILIKE " + ph
			}
			return "(" + strings.Join(clauses, " OR ") + ")"
		},
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type andPredicate []Predicate

// And matches when every part matches. An empty And matches everything.
func And(parts ...Predicate) Predicate {
	if len(parts) == 1 {
		return parts[0]
	}
	return andPredicate(parts)
}

func (p andPredicate) Match(e *models.Edge) bool {
	for _, part := range p {
		if !part.Match(e) {
			return false
		}
	}
	return true
}

func (p andPredicate) SQL(a *Args) string {
	if len(p) == 0 {
		return "TRUE"
	}
	clauses := make([]string, len(p))
	for i, part := range p {
		clauses[i] = part.SQL(a)
	}
	return "(" + strings.Join(clauses, " AND ") + ")"
}

type orPredicate []Predicate

// Or matches when any part matches. An empty Or matches nothing.
func Or(parts ...Predicate) Predicate {
	if len(parts) == 1 {
		return parts[0]
	}
	return orPredicate(parts)
}

func (p orPredicate) Match(e *models.Edge) bool {
	for _, part := range p {
		if part.Match(e) {
			return true
		}
	}
	return false
}

func (p orPredicate) SQL(a *Args) string {
	if len(p) == 0 {
		return "FALSE"
	}
	clauses := make([]string, len(p))
	for i, part := range p {
		clauses[i] = part.SQL(a)
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}

type notPredicate struct {
	inner Predicate
}

// Not negates p. A comparison against NULL is false in memory, so the SQL form
// coalesces the inner NULL to FALSE before negating.
func Not(p Predicate) Predicate {
	return notPredicate{inner: p}
}

func (p notPredicate) Match(e *models.Edge) bool {
	return !p.inner.Match(e)
}

func (p notPredicate) SQL(a *Args) string {
	return "NOT COALESCE(" + p.inner.SQL(a) + ", FALSE)"
}

// True matches every row.
func True() Predicate { return andPredicate(nil) }

// False matches no row.
func False() Predicate { return orPredicate(nil) }
