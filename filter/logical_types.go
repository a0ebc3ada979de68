package filter

// LogicalTypeID identifies DuckDB data types.
type LogicalTypeID string

const (
	TypeIDInvalid      LogicalTypeID = "INVALID"
	TypeIDSQLNull      LogicalTypeID = "SQLNULL"
	TypeIDBoolean      LogicalTypeID = "BOOLEAN"
	TypeIDTinyInt      LogicalTypeID = "TINYINT"
	TypeIDSmallInt     LogicalTypeID = "SMALLINT"
	TypeIDInteger      LogicalTypeID = "INTEGER"
	TypeIDBigInt       LogicalTypeID = "BIGINT"
	TypeIDDate         LogicalTypeID = "DATE"
	TypeIDTime         LogicalTypeID = "TIME"
	TypeIDTimestampSec LogicalTypeID = "TIMESTAMP_SEC"
	TypeIDTimestampMs  LogicalTypeID = "TIMESTAMP_MS"
	TypeIDTimestamp    LogicalTypeID = "TIMESTAMP"
	TypeIDTimestampNs  LogicalTypeID = "TIMESTAMP_NS"
	TypeIDDecimal      LogicalTypeID = "DECIMAL"
	TypeIDFloat        LogicalTypeID = "FLOAT"
	TypeIDDouble       LogicalTypeID = "DOUBLE"
	TypeIDChar         LogicalTypeID = "CHAR"
	TypeIDVarchar      LogicalTypeID = "VARCHAR"
	TypeIDBlob         LogicalTypeID = "BLOB"
	TypeIDInterval     LogicalTypeID = "INTERVAL"
	TypeIDUTinyInt     LogicalTypeID = "UTINYINT"
	TypeIDUSmallInt    LogicalTypeID = "USMALLINT"
	TypeIDUInteger     LogicalTypeID = "UINTEGER"
	TypeIDUBigInt      LogicalTypeID = "UBIGINT"
	TypeIDTimestampTZ  LogicalTypeID = "TIMESTAMP_TZ"
	TypeIDTimeTZ       LogicalTypeID = "TIME_TZ"
	TypeIDHugeInt      LogicalTypeID = "HUGEINT"
	TypeIDUHugeInt     LogicalTypeID = "UHUGEINT"
	TypeIDUUID         LogicalTypeID = "UUID"
	TypeIDList         LogicalTypeID = "LIST"
)

// typeAliases maps DuckDB full or alias type names to the short form.
var typeAliases = map[LogicalTypeID]LogicalTypeID{
	"TIMESTAMP WITH TIME ZONE":    TypeIDTimestampTZ,
	"TIMESTAMPTZ":                 TypeIDTimestampTZ,
	"TIME WITH TIME ZONE":         TypeIDTimeTZ,
	"TIMETZ":                      TypeIDTimeTZ,
	"TIMESTAMP_S":                 TypeIDTimestampSec,
	"TIMESTAMP WITHOUT TIME ZONE": TypeIDTimestamp,
	"INT":                         TypeIDInteger,
	"INT4":                        TypeIDInteger,
	"INT8":                        TypeIDBigInt,
	"INT2":                        TypeIDSmallInt,
	"INT1":                        TypeIDTinyInt,
	"INT128":                      TypeIDHugeInt,
	"FLOAT4":                      TypeIDFloat,
	"FLOAT8":                      TypeIDDouble,
	"REAL":                        TypeIDFloat,
	"STRING":                      TypeIDVarchar,
	"TEXT":                        TypeIDVarchar,
	"BOOL":                        TypeIDBoolean,
}

// Normalize returns the canonical LogicalTypeID for the given type ID.
func (t LogicalTypeID) Normalize() LogicalTypeID {
	if mapped, ok := typeAliases[t]; ok {
		return mapped
	}
	return t
}

// LogicalType represents a DuckDB logical type. Only DECIMAL carries
// extra information the rest of the module looks at.
type LogicalType struct {
	ID      LogicalTypeID    `json:"id"`
	Decimal *DecimalTypeInfo `json:"type_info,omitempty"`
}

// DecimalTypeInfo contains decimal precision and scale.
type DecimalTypeInfo struct {
	Width int `json:"width"`
	Scale int `json:"scale"`
}

// Value represents a typed constant value.
type Value struct {
	Type   LogicalType `json:"type"`
	IsNull bool        `json:"is_null"`
	Data   any         `json:"value"`
}

// HugeInt represents a 128-bit signed integer.
type HugeInt struct {
	Upper int64  `json:"upper"`
	Lower uint64 `json:"lower"`
}

// Interval represents a time interval.
type Interval struct {
	Months int32 `json:"months"`
	Days   int32 `json:"days"`
	Micros int64 `json:"micros"`
}

// ListValue represents a list value, as used by IN lists.
type ListValue struct {
	Children []Value `json:"children"`
}

// IsInteger returns true if the type is an integer type.
func (t LogicalTypeID) IsInteger() bool {
	switch t {
	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt,
		TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt,
		TypeIDHugeInt, TypeIDUHugeInt:
		return true
	}
	return false
}

// IsTimestamp returns true for every TIMESTAMP precision and TIMESTAMP_TZ.
func (t LogicalTypeID) IsTimestamp() bool {
	switch t {
	case TypeIDTimestamp, TypeIDTimestampTZ, TypeIDTimestampMs, TypeIDTimestampNs, TypeIDTimestampSec:
		return true
	}
	return false
}

// IsString returns true if the type is a character type.
func (t LogicalTypeID) IsString() bool {
	return t == TypeIDVarchar || t == TypeIDChar
}
