package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// pagedAPI serves {"data": rows[offset:offset+limit]} and records every
// request it receives.
type pagedAPI struct {
	t    *testing.T
	rows []map[string]any

	mu      sync.Mutex
	offsets []int
	queries []string
}

func newPagedAPI(t *testing.T, rows ...map[string]any) (*pagedAPI, *httptest.Server) {
	t.Helper()
	api := &pagedAPI{t: t, rows: rows}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *pagedAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	a.mu.Lock()
	a.offsets = append(a.offsets, offset)
	a.queries = append(a.queries, r.URL.RawQuery)
	a.mu.Unlock()

	page := []map[string]any{}
	if offset < len(a.rows) {
		end := len(a.rows)
		if limit > 0 && offset+limit < end {
			end = offset + limit
		}
		page = a.rows[offset:end]
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": page}); err != nil {
		a.t.Errorf("encode page: %v", err)
	}
}

func (a *pagedAPI) requests() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.offsets...)
}

func (a *pagedAPI) lastQuery() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queries) == 0 {
		return ""
	}
	return a.queries[len(a.queries)-1]
}

// failingServer answers every request with status and counts them.
type failingServer struct {
	mu     sync.Mutex
	status int
	hits   int
}

func newFailingServer(t *testing.T, status int) (*failingServer, *httptest.Server) {
	t.Helper()
	f := &failingServer{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits++
		f.mu.Unlock()
		http.Error(w, "unavailable", f.status)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *failingServer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

// closedAddress returns the address of a server that no longer listens.
func closedAddress(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	return addr
}

func orderRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{"id": i + 1, "status": "open"}
	}
	return rows
}

var orderFields = []Field{
	{Name: "id", Direction: DirectionResponse, Type: TypeLong, JSONPath: "$.id"},
	{Name: "status", Direction: DirectionBoth, Type: TypeString, JSONPath: "$.status"},
	{Name: "region", Direction: DirectionRequest, Type: TypeString},
}

func newOrdersTable(t *testing.T, pageSize int, addresses []string, opts ...Option) *Table {
	t.Helper()
	table, err := NewTable("orders", ConnectionConfig{
		Addresses: addresses,
		URL:       "/orders?offset={{.offset}}&limit={{.limit}}{{with .region}}&region={{.}}{{end}}",
		PageSize:  pageSize,
	}, "$.data", orderFields, opts...)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}
