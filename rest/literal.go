package rest

import (
	"math/big"
	"time"

	"github.com/hugr-lab/restapi-airport/filter"
	"github.com/hugr-lab/restapi-airport/render"
	"github.com/shopspring/decimal"
)

// bindLiteral converts a filter constant into the value templates see.
// It reports false for literal types that have no template form; a
// predicate over such a literal is not pushed down.
func bindLiteral(v filter.Value) (any, bool) {
	if v.IsNull {
		return nil, true
	}

	typ := v.Type.ID.Normalize()
	switch {
	case typ == filter.TypeIDBoolean:
		b, ok := v.Data.(bool)
		return b, ok

	case typ.IsString(), typ == filter.TypeIDUUID:
		s, ok := v.Data.(string)
		return s, ok

	case typ == filter.TypeIDHugeInt || typ == filter.TypeIDUHugeInt:
		h, ok := v.Data.(filter.HugeInt)
		if !ok {
			return nil, false
		}
		n := new(big.Int).Lsh(big.NewInt(h.Upper), 64)
		return n.Add(n, new(big.Int).SetUint64(h.Lower)), true

	case typ.IsInteger():
		switch n := v.Data.(type) {
		case int64:
			return n, true
		case uint64:
			return n, true
		}
		return nil, false

	case typ == filter.TypeIDFloat || typ == filter.TypeIDDouble:
		f, ok := v.Data.(float64)
		return f, ok

	case typ == filter.TypeIDDecimal:
		switch d := v.Data.(type) {
		case string:
			dec, err := decimal.NewFromString(d)
			return dec, err == nil
		case float64:
			return decimal.NewFromFloat(d), true
		}
		return nil, false

	case typ == filter.TypeIDDate:
		days, ok := v.Data.(int64)
		if !ok {
			return nil, false
		}
		d := time.Unix(days*24*60*60, 0).UTC()
		return render.NewDate(d.Year(), d.Month(), d.Day()), true

	case typ == filter.TypeIDTime:
		micros, ok := v.Data.(int64)
		if !ok {
			return nil, false
		}
		d := time.Duration(micros) * time.Microsecond
		return render.NewTimeOfDay(int(d/time.Hour), int(d/time.Minute%60), int(d/time.Second%60), int(d%time.Second)), true

	case typ.IsTimestamp():
		n, ok := v.Data.(int64)
		if !ok {
			return nil, false
		}
		var ts time.Time
		switch typ {
		case filter.TypeIDTimestampSec:
			ts = time.Unix(n, 0)
		case filter.TypeIDTimestampMs:
			ts = time.UnixMilli(n)
		case filter.TypeIDTimestampNs:
			ts = time.Unix(0, n)
		default:
			ts = time.UnixMicro(n)
		}
		return render.NewDateTime(ts.UTC()), true
	}
	return nil, false
}
