package rest

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Direction says whether a field feeds the outbound request, is read from
// the response, or both.
type Direction int

const (
	DirectionRequest Direction = iota + 1
	DirectionResponse
	DirectionBoth
)

// ParseDirection parses REQUEST, RESPONSE or BOTH (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REQUEST":
		return DirectionRequest, nil
	case "RESPONSE":
		return DirectionResponse, nil
	case "BOTH":
		return DirectionBoth, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) String() string {
	switch d {
	case DirectionRequest:
		return "REQUEST"
	case DirectionResponse:
		return "RESPONSE"
	case DirectionBoth:
		return "BOTH"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// IsRequest reports whether predicates on the field may be pushed into the request.
func (d Direction) IsRequest() bool { return d == DirectionRequest || d == DirectionBoth }

// IsResponse reports whether the field value is read from the response.
func (d Direction) IsResponse() bool { return d == DirectionResponse || d == DirectionBoth }

// Type is the declared scalar type of a field.
type Type int

const (
	TypeBoolean Type = iota + 1
	TypeByte
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeDate
	TypeTime
	TypeTimestamp
	TypeUUID
	TypeString
)

var typeNames = map[Type]string{
	TypeBoolean:   "BOOLEAN",
	TypeByte:      "BYTE",
	TypeShort:     "SHORT",
	TypeInt:       "INT",
	TypeLong:      "LONG",
	TypeFloat:     "FLOAT",
	TypeDouble:    "DOUBLE",
	TypeDate:      "DATE",
	TypeTime:      "TIME",
	TypeTimestamp: "TIMESTAMP",
	TypeUUID:      "UUID",
	TypeString:    "STRING",
}

// typeAliases accepts the SQL spellings descriptors commonly use.
var typeAliases = map[string]Type{
	"BOOL":     TypeBoolean,
	"TINYINT":  TypeByte,
	"SMALLINT": TypeShort,
	"INTEGER":  TypeInt,
	"BIGINT":   TypeLong,
	"REAL":     TypeFloat,
	"VARCHAR":  TypeString,
	"TEXT":     TypeString,
}

// ParseType parses a declared type name (case-insensitive).
func ParseType(s string) (Type, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	if t, ok := typeAliases[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unsupported type %q", s)
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// uuidType is how UUID columns travel over Flight: 16 fixed bytes tagged
// with the canonical arrow.uuid extension name, which DuckDB maps to UUID.
var uuidType = &arrow.FixedSizeBinaryType{ByteWidth: 16}

var uuidMetadata = arrow.MetadataFrom(map[string]string{
	"ARROW:extension:name": "arrow.uuid",
})

// ArrowType returns the Arrow storage type for values produced by Coerce.
func (t Type) ArrowType() arrow.DataType {
	switch t {
	case TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case TypeByte:
		return arrow.PrimitiveTypes.Int8
	case TypeShort:
		return arrow.PrimitiveTypes.Int16
	case TypeInt:
		return arrow.PrimitiveTypes.Int32
	case TypeLong:
		return arrow.PrimitiveTypes.Int64
	case TypeFloat:
		return arrow.PrimitiveTypes.Float32
	case TypeDouble:
		return arrow.PrimitiveTypes.Float64
	case TypeDate:
		return arrow.FixedWidthTypes.Date32
	case TypeTime:
		return arrow.FixedWidthTypes.Time32ms
	case TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
	case TypeUUID:
		return uuidType
	default:
		return arrow.BinaryTypes.String
	}
}

// Field declares one column of a REST table.
type Field struct {
	Name      string
	Direction Direction
	Type      Type

	// JSONPath locates the value inside a response row. Required when
	// Direction includes RESPONSE, ignored otherwise.
	JSONPath string
}

// ArrowField returns the nullable Arrow field for f.
func (f Field) ArrowField() arrow.Field {
	af := arrow.Field{Name: f.Name, Type: f.Type.ArrowType(), Nullable: true}
	if f.Type == TypeUUID {
		af.Metadata = uuidMetadata
	}
	return af
}
