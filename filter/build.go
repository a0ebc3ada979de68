package filter

// Constructors for building expression trees in code. They produce the same
// shapes Parse produces from DuckDB JSON.

// Column returns a reference to the column at index in the scanned table.
func Column(index int, typ LogicalTypeID) *ColumnRefExpression {
	return &ColumnRefExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundColumnRef, ExprType: TypeBoundColumnRef},
		Binding:        ColumnBinding{ColumnIndex: index},
		ReturnType:     LogicalType{ID: typ},
	}
}

// Constant returns a literal of the given type. A nil data makes a NULL literal.
func Constant(typ LogicalTypeID, data any) *ConstantExpression {
	return &ConstantExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundConstant, ExprType: TypeValueConstant},
		Value:          Value{Type: LogicalType{ID: typ}, IsNull: data == nil, Data: data},
	}
}

// Compare returns a binary comparison of the given type.
func Compare(typ ExpressionType, left, right Expression) *ComparisonExpression {
	return &ComparisonExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundComparison, ExprType: typ},
		Left:           left,
		Right:          right,
	}
}

// And returns the conjunction of children.
func And(children ...Expression) *ConjunctionExpression {
	return &ConjunctionExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundConjunction, ExprType: TypeConjunctionAnd},
		Children:       children,
	}
}

// Or returns the disjunction of children.
func Or(children ...Expression) *ConjunctionExpression {
	return &ConjunctionExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundConjunction, ExprType: TypeConjunctionOr},
		Children:       children,
	}
}

// Not returns the negation of child.
func Not(child Expression) *OperatorExpression {
	return &OperatorExpression{
		BaseExpression: BaseExpression{ExprClass: ClassBoundOperator, ExprType: TypeOperatorNot},
		Children:       []Expression{child},
		ReturnType:     LogicalType{ID: TypeIDBoolean},
	}
}
