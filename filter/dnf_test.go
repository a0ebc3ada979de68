package filter

import (
	"errors"
	"math/rand"
	"testing"
)

// eval evaluates e under an assignment of boolean columns. Atoms are
// comparisons of a column against TRUE, or a "flag" function over a column.
func eval(t *testing.T, e Expression, vars []bool) bool {
	t.Helper()
	switch n := e.(type) {
	case *ConjunctionExpression:
		and := n.Type() == TypeConjunctionAnd
		result := and
		for _, c := range n.Children {
			if and {
				result = result && eval(t, c, vars)
			} else {
				result = result || eval(t, c, vars)
			}
		}
		return result
	case *OperatorExpression:
		if n.Type() != TypeOperatorNot {
			t.Fatalf("unexpected operator %s", n.Type())
		}
		return !eval(t, n.Children[0], vars)
	case *ComparisonExpression:
		v := vars[n.Left.(*ColumnRefExpression).Binding.ColumnIndex]
		switch n.Type() {
		case TypeCompareEqual:
			return v
		case TypeCompareNotEqual:
			return !v
		}
		t.Fatalf("unexpected comparison %s", n.Type())
	case *FunctionExpression:
		return vars[n.Children[0].(*ColumnRefExpression).Binding.ColumnIndex]
	}
	t.Fatalf("unexpected expression %T", e)
	return false
}

func evalDNF(t *testing.T, groups [][]Expression, vars []bool) bool {
	t.Helper()
	for _, g := range groups {
		all := true
		for _, atom := range g {
			if !eval(t, atom, vars) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func randomExpr(r *rand.Rand, numVars, depth int) Expression {
	if depth == 0 || r.Intn(4) == 0 {
		col := Column(r.Intn(numVars), TypeIDBoolean)
		if r.Intn(3) == 0 {
			return &FunctionExpression{
				BaseExpression: BaseExpression{ExprClass: ClassBoundFunction, ExprType: TypeBoundFunction},
				Name:           "flag",
				Children:       []Expression{col},
			}
		}
		return Compare(TypeCompareEqual, col, Constant(TypeIDBoolean, true))
	}
	switch r.Intn(3) {
	case 0:
		return Not(randomExpr(r, numVars, depth-1))
	case 1:
		children := make([]Expression, 1+r.Intn(3))
		for i := range children {
			children[i] = randomExpr(r, numVars, depth-1)
		}
		return And(children...)
	default:
		children := make([]Expression, 1+r.Intn(3))
		for i := range children {
			children[i] = randomExpr(r, numVars, depth-1)
		}
		return Or(children...)
	}
}

func TestToDNFEquivalence(t *testing.T) {
	const numVars = 4
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		input := []Expression{randomExpr(r, numVars, 4), randomExpr(r, numVars, 3)}
		groups, err := ToDNF(input)
		if errors.Is(err, ErrDNFTooComplex) {
			continue
		}
		if err != nil {
			t.Fatalf("ToDNF failed: %v", err)
		}

		for mask := 0; mask < 1<<numVars; mask++ {
			vars := make([]bool, numVars)
			for v := range vars {
				vars[v] = mask&(1<<v) != 0
			}
			want := eval(t, And(input...), vars)
			if got := evalDNF(t, groups, vars); got != want {
				t.Fatalf("tree %d, assignment %v: DNF = %v, input = %v", i, vars, got, want)
			}
		}

		for _, g := range groups {
			for _, atom := range g {
				if c, ok := atom.(*ConjunctionExpression); ok {
					t.Fatalf("tree %d: conjunction %s left inside a group", i, c.Type())
				}
				if op, ok := atom.(*OperatorExpression); ok {
					if _, isCmp := op.Children[0].(*ComparisonExpression); isCmp {
						t.Fatalf("tree %d: negated comparison was not complemented", i)
					}
				}
			}
		}
	}
}

func TestToDNFDistribution(t *testing.T) {
	amount := Column(0, TypeIDInteger)
	region := Column(1, TypeIDVarchar)
	priority := Column(2, TypeIDInteger)

	// amount > 100 AND region = 'EU' OR priority = 1
	expr := Or(
		And(
			Compare(TypeCompareGreaterThan, amount, Constant(TypeIDInteger, int64(100))),
			Compare(TypeCompareEqual, region, Constant(TypeIDVarchar, "EU")),
		),
		Compare(TypeCompareEqual, priority, Constant(TypeIDInteger, int64(1))),
	)

	groups, err := ToDNF([]Expression{expr})
	if err != nil {
		t.Fatalf("ToDNF failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0]) != 2 || len(groups[1]) != 1 {
		t.Fatalf("expected group sizes [2 1], got [%d %d]", len(groups[0]), len(groups[1]))
	}
	if groups[0][0].Type() != TypeCompareGreaterThan || groups[0][1].Type() != TypeCompareEqual {
		t.Errorf("unexpected first group %s, %s", groups[0][0].Type(), groups[0][1].Type())
	}
	if groups[1][0].(*ComparisonExpression).Left != priority {
		t.Errorf("second group should hold priority = 1")
	}
}

func TestToDNFImplicitAndOfList(t *testing.T) {
	a := Compare(TypeCompareEqual, Column(0, TypeIDInteger), Constant(TypeIDInteger, int64(1)))
	b := Or(
		Compare(TypeCompareEqual, Column(1, TypeIDInteger), Constant(TypeIDInteger, int64(2))),
		Compare(TypeCompareEqual, Column(1, TypeIDInteger), Constant(TypeIDInteger, int64(3))),
	)

	// a AND (b1 OR b2) => (a AND b1) OR (a AND b2)
	groups, err := ToDNF([]Expression{a, b})
	if err != nil {
		t.Fatalf("ToDNF failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	for i, g := range groups {
		if len(g) != 2 || g[0] != a {
			t.Errorf("group %d: expected a first in a group of two, got %v", i, g)
		}
	}
}

func TestToDNFNegation(t *testing.T) {
	col := Column(0, TypeIDInteger)
	lit := Constant(TypeIDInteger, int64(5))

	tests := []struct {
		name string
		in   Expression
		want ExpressionType
	}{
		{"not equal", Not(Compare(TypeCompareEqual, col, lit)), TypeCompareNotEqual},
		{"not less than", Not(Compare(TypeCompareLessThan, col, lit)), TypeCompareGreaterThanOrEqual},
		{"double negation", Not(Not(Compare(TypeCompareGreaterThan, col, lit))), TypeCompareGreaterThan},
		{"not is null", Not(&OperatorExpression{
			BaseExpression: BaseExpression{ExprClass: ClassBoundOperator, ExprType: TypeOperatorIsNull},
			Children:       []Expression{col},
		}), TypeOperatorIsNotNull},
		{"not between", Not(&BetweenExpression{
			BaseExpression: BaseExpression{ExprClass: ClassBoundBetween, ExprType: TypeCompareBetween},
			Input:          col, Lower: lit, Upper: lit,
		}), TypeOperatorNot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := ToDNF([]Expression{tt.in})
			if err != nil {
				t.Fatalf("ToDNF failed: %v", err)
			}
			if len(groups) != 1 || len(groups[0]) != 1 {
				t.Fatalf("expected a single atom, got %v", groups)
			}
			if got := groups[0][0].Type(); got != tt.want {
				t.Errorf("atom type = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToDNFEmptyAndTooComplex(t *testing.T) {
	groups, err := ToDNF(nil)
	if err != nil {
		t.Fatalf("ToDNF failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0]) != 0 {
		t.Errorf("expected one empty group for TRUE, got %v", groups)
	}

	// (a1 OR b1) AND ... AND (a11 OR b11) expands to 2^11 groups
	var clauses []Expression
	for i := 0; i < 11; i++ {
		clauses = append(clauses, Or(
			Compare(TypeCompareEqual, Column(i, TypeIDInteger), Constant(TypeIDInteger, int64(0))),
			Compare(TypeCompareEqual, Column(i, TypeIDInteger), Constant(TypeIDInteger, int64(1))),
		))
	}
	if _, err := ToDNF(clauses); !errors.Is(err, ErrDNFTooComplex) {
		t.Errorf("expected ErrDNFTooComplex, got %v", err)
	}
}
