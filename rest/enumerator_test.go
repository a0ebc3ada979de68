package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func collectIDs(t *testing.T, rows *RowEnumerator) []int64 {
	t.Helper()
	var ids []int64
	for rows.Next() {
		ids = append(ids, rows.Row()[0].(int64))
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return ids
}

func equalInts[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Scenario: page size 2 over pages [r1, r2] and [r3].
func TestRowEnumeratorPagesThroughResults(t *testing.T) {
	api, srv := newPagedAPI(t, orderRows(3)...)
	table := newOrdersTable(t, 2, []string{srv.URL})

	rows, err := table.Rows(context.Background(), nil, nil, []int{0})
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if got := api.requests(); !equalInts(got, []int{0}) {
		t.Errorf("first page should be fetched eagerly, requests = %v", got)
	}
	if rows.Row() != nil {
		t.Error("Row before Next should be nil")
	}

	ids := collectIDs(t, rows)
	if !equalInts(ids, []int64{1, 2, 3}) {
		t.Errorf("ids = %v, want [1 2 3]", ids)
	}
	if rows.Row() != nil {
		t.Error("Row after exhaustion should be nil")
	}
	for i := 0; i < 3; i++ {
		if rows.Next() {
			t.Fatal("Next after exhaustion returned true")
		}
	}
	if got := api.requests(); !equalInts(got, []int{0, 2}) {
		t.Errorf("requests = %v, want [0 2]", got)
	}
}

func TestRowEnumeratorTermination(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pageSize int
		want     []int
	}{
		{"short last page", 5, 2, []int{0, 2, 4}},
		{"exact multiple needs empty page", 4, 2, []int{0, 2, 4}},
		{"empty result", 0, 3, []int{0}},
		{"pagination disabled", 5, 0, []int{0}},
		{"negative page size", 5, -1, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newPagedAPI(t, orderRows(tt.total)...)
			table := newOrdersTable(t, tt.pageSize, []string{srv.URL})

			rows, err := table.Rows(context.Background(), nil, nil, nil)
			if err != nil {
				t.Fatalf("Rows failed: %v", err)
			}
			n := 0
			for rows.Next() {
				n++
			}
			if rows.Err() != nil {
				t.Fatalf("scan failed: %v", rows.Err())
			}
			if n != tt.total {
				t.Errorf("got %d rows, want %d", n, tt.total)
			}
			if got := api.requests(); !equalInts(got, tt.want) {
				t.Errorf("request offsets = %v, want %v", got, tt.want)
			}
			rows.Next()
			if got := api.requests(); len(got) != len(tt.want) {
				t.Errorf("Next after exhaustion issued a request")
			}
		})
	}
}

func TestRowEnumeratorPageStart(t *testing.T) {
	api, srv := newPagedAPI(t, orderRows(7)...)
	table, err := NewTable("orders", ConnectionConfig{
		Addresses: []string{srv.URL},
		URL:       "/orders?offset={{.offset}}&limit={{.limit}}",
		PageSize:  3,
		PageStart: 1,
	}, "$.data", orderFields)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := table.Rows(context.Background(), nil, nil, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	if ids := collectIDs(t, rows); !equalInts(ids, []int64{4, 5, 6, 7}) {
		t.Errorf("ids = %v, want [4 5 6 7]", ids)
	}
	if got := api.requests(); !equalInts(got, []int{3, 6}) {
		t.Errorf("offsets = %v, want [3 6]", got)
	}
}

func TestRowEnumeratorPinsFirstAddress(t *testing.T) {
	bad, badSrv := newFailingServer(t, http.StatusServiceUnavailable)
	api, goodSrv := newPagedAPI(t, orderRows(5)...)
	table := newOrdersTable(t, 2, []string{badSrv.URL, goodSrv.URL})

	rows, err := table.Rows(context.Background(), nil, nil, []int{0})
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if ids := collectIDs(t, rows); len(ids) != 5 {
		t.Errorf("got %d rows, want 5", len(ids))
	}
	if bad.count() != 1 {
		t.Errorf("failed address retried: %d hits", bad.count())
	}
	if got := api.requests(); !equalInts(got, []int{0, 2, 4}) {
		t.Errorf("offsets = %v, want [0 2 4]", got)
	}
}

func TestRowEnumeratorPinnedFailureEndsScan(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"id": 1}, {"id": 2}]}`))
	}))
	defer srv.Close()
	table := newOrdersTable(t, 2, []string{srv.URL})

	rows, err := table.Rows(context.Background(), nil, nil, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for rows.Next() {
		n++
	}
	if n != 2 {
		t.Errorf("got %d rows before failure, want 2", n)
	}
	var te *TransportError
	if !errors.As(rows.Err(), &te) {
		t.Fatalf("expected TransportError, got %v", rows.Err())
	}
	if rows.Next() || calls.Load() != 2 {
		t.Errorf("failed scan must stay exhausted without requests, calls = %d", calls.Load())
	}
}

func TestRowEnumeratorCoercionAbortsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"id": 1}, {"id": "x"}, {"id": 3}]}`))
	}))
	defer srv.Close()
	table := newOrdersTable(t, 0, []string{srv.URL})

	_, err := table.Rows(context.Background(), nil, nil, nil)
	var ce *CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CoercionError, got %v", err)
	}
	if ce.Field != "id" || ce.Raw != "x" {
		t.Errorf("CoercionError = %+v", ce)
	}
}

func TestRowEnumeratorReset(t *testing.T) {
	api, srv := newPagedAPI(t, orderRows(3)...)
	table := newOrdersTable(t, 2, []string{srv.URL})

	rows, err := table.Rows(context.Background(), nil, nil, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	rows.Next()
	rows.Next()
	rows.Next()

	rows.Reset()
	if rows.Row() != nil {
		t.Error("Row after Reset should be nil")
	}
	if ids := collectIDs(t, rows); !equalInts(ids, []int64{1, 2, 3}) {
		t.Errorf("ids after Reset = %v, want [1 2 3]", ids)
	}
	if got := api.requests(); !equalInts(got, []int{0, 2, 0, 2}) {
		t.Errorf("offsets = %v, want [0 2 0 2]", got)
	}

	_ = rows.Close()
	rows.Reset()
	if rows.Next() {
		t.Error("Next after Close returned true")
	}
}
