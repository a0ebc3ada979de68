package rest

import (
	"context"
)

type enumState int

const (
	stateNotStarted enumState = iota
	stateHasRow
	stateExhausted
)

// RowEnumerator streams the typed rows of one scan, page by page.
//
// Pages are fetched on demand only: the next page is requested when the
// cursor moves past the last row of the current one. The first page is
// requested from the first address that answers, and every later page from
// that same address. A page shorter than the page size, an empty page, or a
// disabled page size ends the scan without another request.
//
// A RowEnumerator is not safe for concurrent use.
type RowEnumerator struct {
	ctx     context.Context
	table   *Table
	reqCtx  *RequestContext
	columns []int

	offset int64
	pinned string
	loaded bool
	more   bool
	page   [][]any
	index  int

	state   enumState
	current []any
	err     error
	closed  bool
}

func newRowEnumerator(ctx context.Context, t *Table, reqCtx *RequestContext, columns []int) *RowEnumerator {
	return &RowEnumerator{
		ctx:     ctx,
		table:   t,
		reqCtx:  reqCtx,
		columns: columns,
		offset:  t.config.initialOffset(),
		index:   -1,
	}
}

// Next advances to the next row. It returns false once the scan is
// exhausted or failed; after that it keeps returning false without
// issuing requests. Check Err to tell the two apart.
func (e *RowEnumerator) Next() bool {
	if e.state == stateExhausted {
		return false
	}
	if !e.loaded && !e.fetch() {
		return false
	}
	for e.index+1 >= len(e.page) {
		if !e.more {
			e.finish(nil)
			return false
		}
		e.offset += int64(e.table.config.PageSize)
		if !e.fetch() {
			return false
		}
	}
	e.index++
	e.current = e.page[e.index]
	e.state = stateHasRow
	return true
}

// Row returns the current row, aligned to the projected fields. It is nil
// unless the last call to Next returned true.
func (e *RowEnumerator) Row() []any {
	if e.state != stateHasRow {
		return nil
	}
	return e.current
}

// Err returns the error that ended the scan, if any.
func (e *RowEnumerator) Err() error { return e.err }

// Reset rewinds the scan to the first page. The pinned address and the
// current page are dropped, so the next call to Next repeats failover from
// the initial offset. Reset has no effect after Close.
func (e *RowEnumerator) Reset() {
	if e.closed {
		return
	}
	e.offset = e.table.config.initialOffset()
	e.pinned = ""
	e.loaded = false
	e.more = false
	e.page = nil
	e.index = -1
	e.state = stateNotStarted
	e.current = nil
	e.err = nil
}

// Close ends the scan. Further calls to Next return false.
func (e *RowEnumerator) Close() error {
	e.closed = true
	e.finish(nil)
	return nil
}

// fetch loads the page at the current offset.
func (e *RowEnumerator) fetch() bool {
	e.reqCtx.Values["offset"] = e.offset
	addr, rows, err := e.table.fetchPage(e.ctx, e.reqCtx, e.pinned, e.columns)
	if err != nil {
		e.finish(err)
		return false
	}

	size := e.table.config.PageSize
	e.pinned = addr
	e.loaded = true
	e.page = rows
	e.index = -1
	e.more = size > 0 && len(rows) > 0 && len(rows) >= size
	return true
}

func (e *RowEnumerator) finish(err error) {
	if err != nil && e.err == nil {
		e.err = err
		e.table.logger.Error("scan failed", "table", e.table.name, "offset", e.offset, "error", err)
	}
	e.state = stateExhausted
	e.current = nil
	e.page = nil
	e.more = false
}
