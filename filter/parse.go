package filter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Parse parses filter pushdown JSON from DuckDB Airport extension.
// Returns a FilterPushdown containing parsed expressions and column bindings.
//
// Error conditions:
//   - Invalid JSON syntax
//   - Malformed operands or constant values
//
// Unknown expression classes are not errors; they parse into
// UnsupportedExpression.
func Parse(data []byte) (*FilterPushdown, error) {
	if len(data) == 0 {
		return &FilterPushdown{}, nil
	}

	var raw struct {
		Filters        []json.RawMessage `json:"filters"`
		ColumnBindings []string          `json:"column_binding_names_by_index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("filter: invalid JSON: %w", err)
	}

	fp := &FilterPushdown{
		ColumnBindings: raw.ColumnBindings,
		Filters:        make([]Expression, 0, len(raw.Filters)),
	}
	for i, msg := range raw.Filters {
		expr, err := parseExpression(msg)
		if err != nil {
			return nil, fmt.Errorf("filter: error parsing filter %d: %w", i, err)
		}
		fp.Filters = append(fp.Filters, expr)
	}
	return fp, nil
}

// rawNode holds the union of the fields used by every modelled expression
// class. Decoding once into the union keeps the per-class code small.
type rawNode struct {
	ExpressionClass string            `json:"expression_class"`
	Type            string            `json:"type"`
	Alias           string            `json:"alias"`
	Left            json.RawMessage   `json:"left"`
	Right           json.RawMessage   `json:"right"`
	Children        []json.RawMessage `json:"children"`
	Child           json.RawMessage   `json:"child"`
	Input           json.RawMessage   `json:"input"`
	Lower           json.RawMessage   `json:"lower"`
	Upper           json.RawMessage   `json:"upper"`
	LowerInclusive  bool              `json:"lower_inclusive"`
	UpperInclusive  bool              `json:"upper_inclusive"`
	Value           json.RawMessage   `json:"value"`
	ReturnType      json.RawMessage   `json:"return_type"`
	Binding         ColumnBinding     `json:"binding"`
	Depth           int               `json:"depth"`
	Name            string            `json:"name"`
	IsOperator      bool              `json:"is_operator"`
	TryCast         bool              `json:"try_cast"`
}

func (n *rawNode) base() BaseExpression {
	return BaseExpression{
		ExprClass: ExpressionClass(n.ExpressionClass),
		ExprType:  ExpressionType(n.Type),
		ExprAlias: n.Alias,
	}
}

func parseExpression(data json.RawMessage) (Expression, error) {
	var n rawNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	switch ExpressionClass(n.ExpressionClass) {
	case ClassBoundComparison:
		left, err := parseExpression(n.Left)
		if err != nil {
			return nil, fmt.Errorf("invalid left operand: %w", err)
		}
		right, err := parseExpression(n.Right)
		if err != nil {
			return nil, fmt.Errorf("invalid right operand: %w", err)
		}
		return &ComparisonExpression{BaseExpression: n.base(), Left: left, Right: right}, nil

	case ClassBoundConjunction:
		children, err := parseChildren(n.Children)
		if err != nil {
			return nil, err
		}
		return &ConjunctionExpression{BaseExpression: n.base(), Children: children}, nil

	case ClassBoundConstant:
		value, err := parseValue(n.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid value: %w", err)
		}
		return &ConstantExpression{BaseExpression: n.base(), Value: value}, nil

	case ClassBoundColumnRef:
		rt, err := parseLogicalType(n.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		return &ColumnRefExpression{BaseExpression: n.base(), Binding: n.Binding, ReturnType: rt, Depth: n.Depth}, nil

	case ClassBoundFunction:
		rt, err := parseLogicalType(n.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		children, err := parseChildren(n.Children)
		if err != nil {
			return nil, err
		}
		return &FunctionExpression{
			BaseExpression: n.base(),
			Name:           n.Name,
			Children:       children,
			ReturnType:     rt,
			IsOperator:     n.IsOperator,
		}, nil

	case ClassBoundCast:
		child, err := parseExpression(n.Child)
		if err != nil {
			return nil, fmt.Errorf("invalid child: %w", err)
		}
		rt, err := parseLogicalType(n.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		return &CastExpression{BaseExpression: n.base(), Child: child, ReturnType: rt, TryCast: n.TryCast}, nil

	case ClassBoundBetween:
		input, err := parseExpression(n.Input)
		if err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
		lower, err := parseExpression(n.Lower)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound: %w", err)
		}
		upper, err := parseExpression(n.Upper)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound: %w", err)
		}
		return &BetweenExpression{
			BaseExpression: n.base(),
			Input:          input,
			Lower:          lower,
			Upper:          upper,
			LowerInclusive: n.LowerInclusive,
			UpperInclusive: n.UpperInclusive,
		}, nil

	case ClassBoundOperator:
		rt, err := parseLogicalType(n.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		children, err := parseChildren(n.Children)
		if err != nil {
			return nil, err
		}
		return &OperatorExpression{BaseExpression: n.base(), Children: children, ReturnType: rt}, nil

	default:
		return &UnsupportedExpression{BaseExpression: n.base()}, nil
	}
}

func parseChildren(raw []json.RawMessage) ([]Expression, error) {
	children := make([]Expression, 0, len(raw))
	for i, child := range raw {
		expr, err := parseExpression(child)
		if err != nil {
			return nil, fmt.Errorf("invalid child %d: %w", i, err)
		}
		children = append(children, expr)
	}
	return children, nil
}

// parseLogicalType parses a LogicalType from JSON.
func parseLogicalType(data json.RawMessage) (LogicalType, error) {
	if len(data) == 0 || string(data) == "null" {
		return LogicalType{}, nil
	}

	var raw struct {
		ID       string          `json:"id"`
		TypeInfo json.RawMessage `json:"type_info"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogicalType{}, fmt.Errorf("invalid logical type: %w", err)
	}

	lt := LogicalType{ID: LogicalTypeID(raw.ID).Normalize()}
	if lt.ID == TypeIDDecimal && len(raw.TypeInfo) > 0 && string(raw.TypeInfo) != "null" {
		var info DecimalTypeInfo
		if err := json.Unmarshal(raw.TypeInfo, &info); err != nil {
			return LogicalType{}, fmt.Errorf("invalid decimal type info: %w", err)
		}
		lt.Decimal = &info
	}
	return lt, nil
}

// parseValue parses a Value from JSON.
func parseValue(data json.RawMessage) (Value, error) {
	if len(data) == 0 || string(data) == "null" {
		return Value{IsNull: true}, nil
	}

	var raw struct {
		Type   json.RawMessage `json:"type"`
		IsNull bool            `json:"is_null"`
		Value  json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("invalid value: %w", err)
	}

	lt, err := parseLogicalType(raw.Type)
	if err != nil {
		return Value{}, fmt.Errorf("invalid value type: %w", err)
	}

	v := Value{Type: lt, IsNull: raw.IsNull}
	if raw.IsNull || len(raw.Value) == 0 || string(raw.Value) == "null" {
		v.IsNull = true
		return v, nil
	}

	v.Data, err = parseValueData(raw.Value, lt)
	if err != nil {
		return Value{}, fmt.Errorf("invalid value data: %w", err)
	}
	return v, nil
}

// parseValueData decodes the value payload according to its logical type.
func parseValueData(data json.RawMessage, lt LogicalType) (any, error) {
	switch lt.ID {
	case TypeIDBoolean:
		return decodeAs[bool](data)

	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt,
		TypeIDDate, TypeIDTime, TypeIDTimeTZ,
		TypeIDTimestamp, TypeIDTimestampTZ, TypeIDTimestampMs, TypeIDTimestampNs, TypeIDTimestampSec:
		return decodeAs[int64](data)

	case TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt:
		return decodeAs[uint64](data)

	case TypeIDHugeInt:
		return decodeAs[HugeInt](data)

	case TypeIDFloat, TypeIDDouble:
		return decodeAs[float64](data)

	case TypeIDDecimal:
		// Decimal can be string or number
		if s, err := decodeAs[string](data); err == nil {
			return s, nil
		}
		return decodeAs[float64](data)

	case TypeIDVarchar, TypeIDChar, TypeIDUUID:
		// Non-UTF8 strings arrive base64-encoded
		var b64 struct {
			Base64 string `json:"base64"`
		}
		if err := json.Unmarshal(data, &b64); err == nil && b64.Base64 != "" {
			decoded, err := base64.StdEncoding.DecodeString(b64.Base64)
			if err != nil {
				return nil, fmt.Errorf("invalid base64: %w", err)
			}
			return string(decoded), nil
		}
		return decodeAs[string](data)

	case TypeIDInterval:
		return decodeAs[Interval](data)

	case TypeIDList:
		var raw struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		children := make([]Value, 0, len(raw.Children))
		for _, child := range raw.Children {
			v, err := parseValue(child)
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		}
		return ListValue{Children: children}, nil

	default:
		return decodeAs[any](data)
	}
}

func decodeAs[T any](data json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
