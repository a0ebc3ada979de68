package flight

import (
	"encoding/json"
	"fmt"

	"github.com/hugr-lab/restapi-airport/catalog"
)

// TicketData represents the decoded content of a Flight ticket.
// Tickets are opaque to clients; they route DoGet to a table and carry the
// scan parameters negotiated by the endpoints action.
type TicketData struct {
	// Schema is the schema name (e.g., "main", "github")
	Schema string `json:"schema"`

	// Table is the table name (e.g., "repos", "orders")
	Table string `json:"table"`

	// Columns to project (optional, nil means all columns)
	Columns []string `json:"columns,omitempty"`

	// Filter is DuckDB filter pushdown JSON (optional)
	Filter json.RawMessage `json:"filter,omitempty"`
}

// EncodeTicket creates an opaque ticket from ticket data.
func EncodeTicket(td TicketData) ([]byte, error) {
	if td.Schema == "" {
		return nil, fmt.Errorf("schema name cannot be empty")
	}
	if td.Table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if len(td.Filter) > 0 && !json.Valid(td.Filter) {
		return nil, fmt.Errorf("filter is not valid JSON")
	}

	data, err := json.Marshal(td)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return data, nil
}

// DecodeTicket parses an opaque ticket.
// Returns error if ticket is invalid or cannot be decoded.
func DecodeTicket(ticketBytes []byte) (*TicketData, error) {
	if len(ticketBytes) == 0 {
		return nil, fmt.Errorf("ticket cannot be empty")
	}

	var ticket TicketData
	if err := json.Unmarshal(ticketBytes, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}
	if ticket.Schema == "" {
		return nil, fmt.Errorf("decoded ticket has empty schema name")
	}
	if ticket.Table == "" {
		return nil, fmt.Errorf("decoded ticket has empty table name")
	}
	return &ticket, nil
}

// ToScanOptions converts TicketData to catalog.ScanOptions.
func (td *TicketData) ToScanOptions() *catalog.ScanOptions {
	opts := &catalog.ScanOptions{Columns: td.Columns}
	if len(td.Filter) > 0 {
		opts.Filter = []byte(td.Filter)
	}
	return opts
}
