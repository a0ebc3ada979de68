// Package filter parses DuckDB Airport filter pushdown JSON and normalizes
// the resulting predicates into disjunctive normal form.
//
// DuckDB sends the WHERE clause of a scan as a JSON document in the
// "json_filters" parameter of the endpoints action. The document holds a
// list of bound expressions, implicitly AND'ed, plus the names of the
// columns each column binding refers to.
//
// # Basic Usage
//
//	fp, err := filter.Parse(scanOpts.Filter)
//	if err != nil {
//	    return err // Malformed JSON
//	}
//
//	groups, err := filter.ToDNF(fp.Filters)
//	if errors.Is(err, filter.ErrDNFTooComplex) {
//	    // push nothing, the host engine filters client-side
//	}
//	for _, group := range groups {
//	    for _, atom := range group {
//	        // atom is a comparison, a NOT over a non-comparison,
//	        // or any other leaf expression
//	    }
//	}
//
// # Expression Types
//
// The parser understands comparisons, conjunctions, constants, column
// references, functions, casts, BETWEEN and unary operators. Any other
// expression class parses into an UnsupportedExpression, which the DNF
// normalizer treats as an opaque atom.
//
// Constant values are decoded by logical type: integers into int64/uint64,
// floating point into float64, DECIMAL into string or float64, DATE into
// epoch days, TIME into microseconds since midnight and TIMESTAMP variants
// into their native unit since the epoch.
package filter
