package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// RawRow is one element of the response's root array, kept as raw JSON.
type RawRow struct {
	data []byte
	typ  jsonparser.ValueType
}

// Read resolves path inside the row. An absent path, or one outside the
// supported JSONPath subset, reports ok == false.
//
// Strings are returned unescaped. Numbers, booleans, objects and arrays are
// returned as their JSON text. JSON null is returned as nil with ok == true.
func (r RawRow) Read(path string) (any, bool) {
	p, err := compilePath(path)
	if err != nil {
		return nil, false
	}
	return r.read(p)
}

func (r RawRow) read(p jsonPath) (any, bool) {
	if len(p.keys) == 0 {
		return rawValue(r.data, r.typ)
	}
	if r.typ != jsonparser.Object && r.typ != jsonparser.Array {
		return nil, false
	}
	value, typ, _, err := jsonparser.Get(r.data, p.keys...)
	if err != nil {
		return nil, false
	}
	return rawValue(value, typ)
}

func rawValue(value []byte, typ jsonparser.ValueType) (any, bool) {
	switch typ {
	case jsonparser.NotExist:
		return nil, false
	case jsonparser.Null:
		return nil, true
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return string(value), true
		}
		return s, true
	default:
		return string(value), true
	}
}

// ExtractRows resolves rootPath in body and returns the elements of the
// array found there. An empty body, an absent root or a null root yield no
// rows. Invalid JSON or a root of any other shape is an *ExtractionError.
func ExtractRows(body []byte, rootPath string) ([]RawRow, error) {
	root, err := compilePath(rootPath)
	if err != nil {
		return nil, err
	}
	return extractRows(body, root)
}

func extractRows(body []byte, root jsonPath) ([]RawRow, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, &ExtractionError{Path: root.String(), Err: errors.New("response is not valid JSON")}
	}

	value, typ, _, err := jsonparser.Get(body, root.keys...)
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return nil, nil
	case err != nil:
		return nil, &ExtractionError{Path: root.String(), Err: err}
	}

	switch typ {
	case jsonparser.Null, jsonparser.NotExist:
		return nil, nil
	case jsonparser.Array:
	default:
		return nil, &ExtractionError{
			Path: root.String(),
			Err:  fmt.Errorf("expected a JSON array or nothing, got %s", typ),
		}
	}

	var rows []RawRow
	var iterErr error
	_, err = jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, err error) {
		if err != nil {
			iterErr = err
			return
		}
		rows = append(rows, RawRow{data: v, typ: t})
	})
	if err == nil {
		err = iterErr
	}
	if err != nil {
		return nil, &ExtractionError{Path: root.String(), Err: err}
	}
	return rows, nil
}
