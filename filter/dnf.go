package filter

import (
	"errors"
	"fmt"
)

// MaxDNFTerms bounds the number of AND-groups ToDNF will produce.
// Distribution of AND over OR is exponential in the worst case.
const MaxDNFTerms = 1024

// ErrDNFTooComplex is returned when the normalized form would exceed MaxDNFTerms groups.
var ErrDNFTooComplex = errors.New("filter: expression too complex for DNF")

// complements maps each negatable comparison to its logical complement.
// Both sides evaluate to NULL on NULL input, so the rewrite also holds
// under three-valued logic.
var complements = map[ExpressionType]ExpressionType{
	TypeCompareEqual:              TypeCompareNotEqual,
	TypeCompareNotEqual:           TypeCompareEqual,
	TypeCompareLessThan:           TypeCompareGreaterThanOrEqual,
	TypeCompareGreaterThanOrEqual: TypeCompareLessThan,
	TypeCompareGreaterThan:        TypeCompareLessThanOrEqual,
	TypeCompareLessThanOrEqual:    TypeCompareGreaterThan,
	TypeCompareDistinctFrom:       TypeCompareNotDistinctFrom,
	TypeCompareNotDistinctFrom:    TypeCompareDistinctFrom,
	TypeCompareIn:                 TypeCompareNotIn,
	TypeCompareNotIn:              TypeCompareIn,
	TypeOperatorIsNull:            TypeOperatorIsNotNull,
	TypeOperatorIsNotNull:         TypeOperatorIsNull,
}

// ToDNF converts the conjunction of exprs into disjunctive normal form.
//
// The result is an OR of AND-groups. Every atom in a group is a leaf: a
// comparison, a function, a NOT over a leaf that has no complementary
// comparison, or any other non-boolean-connective expression. NOT is pushed
// inward with De Morgan's laws and negated comparisons are replaced by their
// complement (NOT a = 1 becomes a <> 1).
//
// An empty input yields a single empty group (TRUE). An OR with no
// children yields no groups (FALSE).
func ToDNF(exprs []Expression) ([][]Expression, error) {
	return normalize(And(exprs...), false)
}

func normalize(e Expression, negate bool) ([][]Expression, error) {
	switch n := e.(type) {
	case *ConjunctionExpression:
		and := n.Type() == TypeConjunctionAnd
		if n.Type() != TypeConjunctionAnd && n.Type() != TypeConjunctionOr {
			break
		}
		// NOT (a AND b) = NOT a OR NOT b, and the reverse
		if negate {
			and = !and
		}
		if and {
			groups := [][]Expression{{}}
			for _, child := range n.Children {
				sub, err := normalize(child, negate)
				if err != nil {
					return nil, err
				}
				groups, err = product(groups, sub)
				if err != nil {
					return nil, err
				}
			}
			return groups, nil
		}
		var groups [][]Expression
		for _, child := range n.Children {
			sub, err := normalize(child, negate)
			if err != nil {
				return nil, err
			}
			groups = append(groups, sub...)
			if len(groups) > MaxDNFTerms {
				return nil, fmt.Errorf("%w: more than %d groups", ErrDNFTooComplex, MaxDNFTerms)
			}
		}
		return groups, nil

	case *OperatorExpression:
		if n.Type() == TypeOperatorNot && len(n.Children) == 1 {
			return normalize(n.Children[0], !negate)
		}
	}

	if negate {
		return [][]Expression{{negateAtom(e)}}, nil
	}
	return [][]Expression{{e}}, nil
}

// product distributes AND over two DNF group lists.
func product(left, right [][]Expression) ([][]Expression, error) {
	if len(left)*len(right) > MaxDNFTerms {
		return nil, fmt.Errorf("%w: more than %d groups", ErrDNFTooComplex, MaxDNFTerms)
	}
	out := make([][]Expression, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			group := make([]Expression, 0, len(l)+len(r))
			group = append(group, l...)
			group = append(group, r...)
			out = append(out, group)
		}
	}
	return out, nil
}

func negateAtom(e Expression) Expression {
	switch n := e.(type) {
	case *ComparisonExpression:
		if typ, ok := complements[n.Type()]; ok {
			return &ComparisonExpression{
				BaseExpression: BaseExpression{ExprClass: n.Class(), ExprType: typ, ExprAlias: n.Alias()},
				Left:           n.Left,
				Right:          n.Right,
			}
		}
	case *OperatorExpression:
		if typ, ok := complements[n.Type()]; ok {
			return &OperatorExpression{
				BaseExpression: BaseExpression{ExprClass: n.Class(), ExprType: typ, ExprAlias: n.Alias()},
				Children:       n.Children,
				ReturnType:     n.ReturnType,
			}
		}
	}
	return Not(e)
}
