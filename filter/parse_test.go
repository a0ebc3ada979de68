package filter

import (
	"errors"
	"testing"
)

const colAmount = `{
	"expression_class": "BOUND_COLUMN_REF",
	"type": "BOUND_COLUMN_REF",
	"alias": "",
	"return_type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "alias": "", "width": 10, "scale": 2}},
	"binding": {"table_index": 0, "column_index": 0},
	"depth": 0
}`

const colRegion = `{
	"expression_class": "BOUND_COLUMN_REF",
	"type": "BOUND_COLUMN_REF",
	"alias": "",
	"return_type": {"id": "VARCHAR", "type_info": null},
	"binding": {"table_index": 0, "column_index": 1},
	"depth": 0
}`

func TestParseEmpty(t *testing.T) {
	for _, data := range [][]byte{nil, {}} {
		fp, err := Parse(data)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(fp.Filters) != 0 {
			t.Errorf("expected 0 filters, got %d", len(fp.Filters))
		}
	}
}

func TestParseComparisonWithDecimal(t *testing.T) {
	// WHERE amount > 100.50
	data := []byte(`{
		"filters": [{
			"expression_class": "BOUND_COMPARISON",
			"type": "COMPARE_GREATERTHAN",
			"alias": "",
			"left": ` + colAmount + `,
			"right": {
				"expression_class": "BOUND_CONSTANT",
				"type": "VALUE_CONSTANT",
				"alias": "",
				"value": {"type": {"id": "DECIMAL", "type_info": {"type": "DECIMAL_TYPE_INFO", "width": 10, "scale": 2}}, "is_null": false, "value": "100.50"}
			}
		}],
		"column_binding_names_by_index": ["amount", "region"]
	}`)

	fp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(fp.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(fp.Filters))
	}

	comp, ok := fp.Filters[0].(*ComparisonExpression)
	if !ok {
		t.Fatalf("expected ComparisonExpression, got %T", fp.Filters[0])
	}
	if comp.Type() != TypeCompareGreaterThan {
		t.Errorf("expected COMPARE_GREATERTHAN, got %s", comp.Type())
	}

	ref, ok := comp.Left.(*ColumnRefExpression)
	if !ok {
		t.Fatalf("expected ColumnRefExpression on left, got %T", comp.Left)
	}
	name, err := fp.ColumnName(ref)
	if err != nil || name != "amount" {
		t.Errorf("ColumnName = %q, %v; want amount", name, err)
	}
	if ref.ReturnType.Decimal == nil || ref.ReturnType.Decimal.Scale != 2 {
		t.Errorf("expected DECIMAL(10,2) type info, got %+v", ref.ReturnType.Decimal)
	}

	c, ok := comp.Right.(*ConstantExpression)
	if !ok {
		t.Fatalf("expected ConstantExpression on right, got %T", comp.Right)
	}
	if s, ok := c.Value.Data.(string); !ok || s != "100.50" {
		t.Errorf("expected decimal string 100.50, got %#v", c.Value.Data)
	}
}

func TestParseConjunctionAndNot(t *testing.T) {
	// WHERE region = 'EU' OR NOT (region IS NULL)
	data := []byte(`{
		"filters": [{
			"expression_class": "BOUND_CONJUNCTION",
			"type": "CONJUNCTION_OR",
			"alias": "",
			"children": [
				{
					"expression_class": "BOUND_COMPARISON",
					"type": "COMPARE_EQUAL",
					"alias": "",
					"left": ` + colRegion + `,
					"right": {
						"expression_class": "BOUND_CONSTANT",
						"type": "VALUE_CONSTANT",
						"alias": "",
						"value": {"type": {"id": "VARCHAR", "type_info": null}, "is_null": false, "value": {"base64": "RVU="}}
					}
				},
				{
					"expression_class": "BOUND_OPERATOR",
					"type": "OPERATOR_NOT",
					"alias": "",
					"return_type": {"id": "BOOLEAN", "type_info": null},
					"children": [{
						"expression_class": "BOUND_OPERATOR",
						"type": "OPERATOR_IS_NULL",
						"alias": "",
						"return_type": {"id": "BOOLEAN", "type_info": null},
						"children": [` + colRegion + `]
					}]
				}
			]
		}],
		"column_binding_names_by_index": ["amount", "region"]
	}`)

	fp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	or, ok := fp.Filters[0].(*ConjunctionExpression)
	if !ok || or.Type() != TypeConjunctionOr {
		t.Fatalf("expected OR conjunction, got %T", fp.Filters[0])
	}
	if len(or.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(or.Children))
	}

	eq := or.Children[0].(*ComparisonExpression)
	if v := eq.Right.(*ConstantExpression).Value.Data; v != "EU" {
		t.Errorf("expected base64 decoded EU, got %#v", v)
	}

	not, ok := or.Children[1].(*OperatorExpression)
	if !ok || not.Type() != TypeOperatorNot {
		t.Fatalf("expected NOT operator, got %T", or.Children[1])
	}
	if inner := not.Children[0]; inner.Type() != TypeOperatorIsNull {
		t.Errorf("expected IS NULL under NOT, got %s", inner.Type())
	}
}

func TestParseLikeFunction(t *testing.T) {
	// WHERE region LIKE 'E%'
	data := []byte(`{
		"filters": [{
			"expression_class": "BOUND_FUNCTION",
			"type": "BOUND_FUNCTION",
			"alias": "",
			"name": "~~",
			"is_operator": true,
			"return_type": {"id": "BOOLEAN", "type_info": null},
			"children": [
				` + colRegion + `,
				{
					"expression_class": "BOUND_CONSTANT",
					"type": "VALUE_CONSTANT",
					"alias": "",
					"value": {"type": {"id": "VARCHAR", "type_info": null}, "is_null": false, "value": "E%"}
				}
			]
		}],
		"column_binding_names_by_index": ["amount", "region"]
	}`)

	fp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	fn, ok := fp.Filters[0].(*FunctionExpression)
	if !ok {
		t.Fatalf("expected FunctionExpression, got %T", fp.Filters[0])
	}
	if fn.Name != "~~" || !fn.IsOperator || len(fn.Children) != 2 {
		t.Errorf("unexpected function %+v", fn)
	}
}

func TestParseTemporalAndNullConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantNull bool
		want     any
	}{
		{"date", `{"type": {"id": "DATE"}, "is_null": false, "value": 19797}`, false, int64(19797)},
		{"timestamp_tz", `{"type": {"id": "TIMESTAMP WITH TIME ZONE"}, "is_null": false, "value": 1710460800000000}`, false, int64(1710460800000000)},
		{"ubigint", `{"type": {"id": "UBIGINT"}, "is_null": false, "value": 18446744073709551615}`, false, uint64(18446744073709551615)},
		{"null", `{"type": {"id": "INTEGER"}, "is_null": true}`, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseValue([]byte(tt.value))
			if err != nil {
				t.Fatalf("parseValue failed: %v", err)
			}
			if v.IsNull != tt.wantNull {
				t.Errorf("IsNull = %v, want %v", v.IsNull, tt.wantNull)
			}
			if v.Data != tt.want {
				t.Errorf("Data = %#v, want %#v", v.Data, tt.want)
			}
		})
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{invalid json}`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseInvalidColumnBinding(t *testing.T) {
	data := []byte(`{
		"filters": [{
			"expression_class": "BOUND_COLUMN_REF",
			"type": "BOUND_COLUMN_REF",
			"alias": "",
			"return_type": {"id": "INTEGER", "type_info": null},
			"binding": {"table_index": 0, "column_index": 5},
			"depth": 0
		}],
		"column_binding_names_by_index": ["id"]
	}`)

	fp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	_, err = fp.ColumnName(fp.Filters[0].(*ColumnRefExpression))
	var bindErr *ColumnBindingError
	if !errors.As(err, &bindErr) {
		t.Fatalf("expected ColumnBindingError, got %v", err)
	}
	if bindErr.Error() != "invalid column binding index: 5 (max: 0)" {
		t.Errorf("unexpected message %q", bindErr.Error())
	}
}

func TestParseUnsupportedExpression(t *testing.T) {
	data := []byte(`{
		"filters": [{"expression_class": "BOUND_SUBQUERY", "type": "SUBQUERY", "alias": ""}],
		"column_binding_names_by_index": []
	}`)

	fp, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := fp.Filters[0].(*UnsupportedExpression); !ok {
		t.Fatalf("expected UnsupportedExpression, got %T", fp.Filters[0])
	}
}
