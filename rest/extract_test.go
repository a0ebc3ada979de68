package rest

import (
	"errors"
	"testing"
)

func TestCompilePath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"", nil},
		{"$", nil},
		{"$.data", []string{"data"}},
		{"$.data.items", []string{"data", "items"}},
		{"$['odd.name']", []string{"odd.name"}},
		{`$["x"][2].y`, []string{"x", "[2]", "y"}},
		{"$[0]", []string{"[0]"}},
		{"items[1].id", []string{"items", "[1]", "id"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := compilePath(tt.path)
			if err != nil {
				t.Fatalf("compilePath failed: %v", err)
			}
			if len(p.keys) != len(tt.want) {
				t.Fatalf("keys = %q, want %q", p.keys, tt.want)
			}
			for i := range tt.want {
				if p.keys[i] != tt.want[i] {
					t.Errorf("keys = %q, want %q", p.keys, tt.want)
				}
			}
		})
	}
}

func TestCompilePathUnsupported(t *testing.T) {
	for _, path := range []string{"$..name", "$.items[*]", "$.items[-1]", "$[?(@.a)]", "$.a[", "$x"} {
		_, err := compilePath(path)
		var ce *ConfigurationError
		if !errors.As(err, &ce) || !errors.Is(err, ErrUnsupportedPath) {
			t.Errorf("%q: expected unsupported path configuration error, got %v", path, err)
		}
	}
}

func TestExtractRows(t *testing.T) {
	tests := []struct {
		name string
		body string
		root string
		want int
	}{
		{"empty body", "", "$.data", 0},
		{"whitespace body", " \n\t", "$.data", 0},
		{"absent root", `{"other": []}`, "$.data", 0},
		{"null root", `{"data": null}`, "$.data", 0},
		{"empty array", `{"data": []}`, "$.data", 0},
		{"nested array", `{"data": {"items": [{"id": 1}, {"id": 2}]}}`, "$.data.items", 2},
		{"top level array", `[{"id": 1}, {"id": 2}, {"id": 3}]`, "$", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ExtractRows([]byte(tt.body), tt.root)
			if err != nil {
				t.Fatalf("ExtractRows failed: %v", err)
			}
			if len(rows) != tt.want {
				t.Errorf("got %d rows, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestExtractRowsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		root string
	}{
		{"object root", `{"data": {"id": 1}}`, "$.data"},
		{"scalar root", `{"data": 5}`, "$.data"},
		{"string root", `{"data": "x"}`, "$.data"},
		{"invalid json", `{"data": [1, 2`, "$.data"},
		{"not json", `<html></html>`, "$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractRows([]byte(tt.body), tt.root)
			var ee *ExtractionError
			if !errors.As(err, &ee) {
				t.Fatalf("expected ExtractionError, got %v", err)
			}
		})
	}
}

func TestRawRowRead(t *testing.T) {
	rows, err := ExtractRows([]byte(`[
		{"id": 7, "name": "café \"A\"", "active": true, "score": 1.50, "tags": ["a", "b"],
		 "geo": {"lat": 1}, "note": null, "empty": ""},
		"bare"
	]`), "$")
	if err != nil {
		t.Fatalf("ExtractRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"$.id", "7", true},
		{"$.name", `café "A"`, true},
		{"$.active", "true", true},
		{"$.score", "1.50", true},
		{"$.tags", `["a", "b"]`, true},
		{"$.tags[1]", "b", true},
		{"$.geo", `{"lat": 1}`, true},
		{"$.geo.lat", "1", true},
		{"$.note", nil, true},
		{"$.empty", "", true},
		{"$.missing", nil, false},
		{"$.geo.missing", nil, false},
		{"$.tags[5]", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := rows[0].Read(tt.path)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Read(%s) = %#v, %v; want %#v, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if got, ok := rows[1].Read("$"); !ok || got != "bare" {
		t.Errorf(`scalar row Read("$") = %#v, %v`, got, ok)
	}
	if _, ok := rows[1].Read("$.id"); ok {
		t.Error("member of a scalar row should be absent")
	}
}
