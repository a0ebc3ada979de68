package rest

import (
	"github.com/hugr-lab/restapi-airport/filter"
)

// Predicate is one pushed-down comparison: Field Operator Value.
type Predicate struct {
	Field    string
	Operator string
	Value    any
}

// FilterGroup is an AND of predicates. A scan's pushdown set is an OR of groups.
type FilterGroup []Predicate

// ColumnResolver resolves a column reference in a filter to a field name.
// filter.FilterPushdown.ColumnName satisfies it.
type ColumnResolver func(ref *filter.ColumnRefExpression) (string, error)

// comparisonOperators are the comparisons that can be pushed, with the
// operator text templates see.
var comparisonOperators = map[filter.ExpressionType]string{
	filter.TypeCompareEqual:              "=",
	filter.TypeCompareNotEqual:           "<>",
	filter.TypeCompareLessThan:           "<",
	filter.TypeCompareGreaterThan:        ">",
	filter.TypeCompareLessThanOrEqual:    "<=",
	filter.TypeCompareGreaterThanOrEqual: ">=",
	filter.TypeCompareDistinctFrom:       "IS DISTINCT FROM",
	filter.TypeCompareNotDistinctFrom:    "IS NOT DISTINCT FROM",
}

// functionOperators are binary operators DuckDB sends as functions.
var functionOperators = map[string]string{
	"~~":    "LIKE",
	"!~~":   "NOT LIKE",
	"~~*":   "ILIKE",
	"!~~*":  "NOT ILIKE",
	"like":  "LIKE",
	"ilike": "ILIKE",
}

// Pushdown normalizes filters (implicitly AND-ed) to disjunctive normal form
// and keeps the predicates a request can express.
//
// A predicate is kept iff it has exactly two operands, the left one is a
// direct reference to a field whose direction includes REQUEST, and the
// right one is a constant with a template form. Everything else is dropped
// from its group, and groups left empty are dropped. Dropped predicates are
// still evaluated by the caller, so the result only narrows what is fetched.
//
// With a nil resolve, column binding indexes address fields directly.
// The only error is a wrapped filter.ErrDNFTooComplex.
func Pushdown(filters []filter.Expression, fields []Field, resolve ColumnResolver) ([]FilterGroup, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	dnf, err := filter.ToDNF(filters)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.Name] = i
	}
	lookup := func(ref *filter.ColumnRefExpression) (Field, bool) {
		if resolve == nil {
			i := ref.Binding.ColumnIndex
			if i < 0 || i >= len(fields) {
				return Field{}, false
			}
			return fields[i], true
		}
		name, err := resolve(ref)
		if err != nil {
			return Field{}, false
		}
		i, ok := byName[name]
		if !ok {
			return Field{}, false
		}
		return fields[i], true
	}

	var groups []FilterGroup
	for _, conj := range dnf {
		var group FilterGroup
		for _, atom := range conj {
			if p, ok := eligible(atom, lookup); ok {
				group = append(group, p)
			}
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func eligible(e filter.Expression, lookup func(*filter.ColumnRefExpression) (Field, bool)) (Predicate, bool) {
	var op string
	var left, right filter.Expression
	switch n := e.(type) {
	case *filter.ComparisonExpression:
		var ok bool
		if op, ok = comparisonOperators[n.Type()]; !ok {
			return Predicate{}, false
		}
		left, right = n.Left, n.Right
	case *filter.FunctionExpression:
		var ok bool
		if op, ok = functionOperators[n.Name]; !ok || len(n.Children) != 2 {
			return Predicate{}, false
		}
		left, right = n.Children[0], n.Children[1]
	default:
		return Predicate{}, false
	}

	ref, ok := left.(*filter.ColumnRefExpression)
	if !ok {
		return Predicate{}, false
	}
	c, ok := right.(*filter.ConstantExpression)
	if !ok {
		return Predicate{}, false
	}
	field, ok := lookup(ref)
	if !ok || !field.Direction.IsRequest() {
		return Predicate{}, false
	}
	value, ok := bindLiteral(c.Value)
	if !ok {
		return Predicate{}, false
	}
	return Predicate{Field: field.Name, Operator: op, Value: value}, true
}
