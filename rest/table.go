// Package rest exposes a remote HTTP/JSON API as a readable table.
//
// A Table turns a scan (filters and a projection supplied by the query
// engine) into paged HTTP requests and streams the typed rows back:
//
//	filters --Pushdown--> []FilterGroup --BuildRequestContext--> template data
//	template data --Executor.Fetch--> JSON page --ExtractRows/Coerce--> rows
//
// Rows are pulled one at a time through RowEnumerator, or as Arrow records
// through Table.Scan, which makes Table a catalog.Table for the Flight server.
package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/restapi-airport/filter"
	"github.com/hugr-lab/restapi-airport/render"
)

const defaultBatchSize = 1024

type options struct {
	comment   string
	renderer  render.Renderer
	logger    *slog.Logger
	metrics   *Metrics
	breaker   BreakerConfig
	client    *http.Client
	alloc     memory.Allocator
	props     map[string]any
	batchSize int
}

// Option configures a Table or an Executor.
type Option func(*options)

// WithComment sets the table comment shown in the catalog.
func WithComment(comment string) Option {
	return func(o *options) { o.comment = comment }
}

// WithRenderer sets the template renderer. Tables created without one get
// their own render.TemplateRenderer.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records request, page and row metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithBreaker guards each address with a circuit breaker.
func WithBreaker(cfg BreakerConfig) Option {
	return func(o *options) { o.breaker = cfg }
}

// WithHTTPClient replaces the HTTP client built from the connection timeouts.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithAllocator sets the Arrow allocator used by Scan.
func WithAllocator(alloc memory.Allocator) Option {
	return func(o *options) { o.alloc = alloc }
}

// WithStaticProperties adds properties to every request context of the
// table. Properties attached to the scan context override them.
func WithStaticProperties(props map[string]any) Option {
	return func(o *options) { o.props = props }
}

// WithBatchSize sets the default number of rows per Arrow record.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.renderer == nil {
		o.renderer = render.NewTemplateRenderer(0)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.alloc == nil {
		o.alloc = memory.DefaultAllocator
	}
	if o.batchSize <= 0 {
		o.batchSize = defaultBatchSize
	}
	return o
}

// Table is a REST API exposed as a table. It is immutable and safe for
// concurrent scans; all per-scan state lives in the RowEnumerator.
type Table struct {
	name     string
	comment  string
	root     jsonPath
	fields   []Field
	paths    []jsonPath
	config   ConnectionConfig
	props    map[string]any
	schema   *arrow.Schema
	executor *Executor

	logger    *slog.Logger
	metrics   *Metrics
	alloc     memory.Allocator
	batchSize int
}

// NewTable validates the definition and creates a table. rootPath locates
// the array of rows in each response ("" or "$" for a top-level array).
// Invalid definitions are reported as *ConfigurationError.
func NewTable(name string, config ConnectionConfig, rootPath string, fields []Field, opts ...Option) (*Table, error) {
	if name == "" {
		return nil, &ConfigurationError{Err: errors.New("table name is empty")}
	}
	wrap := func(err error) error {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			return &ConfigurationError{Table: name, Err: ce.Err}
		}
		return &ConfigurationError{Table: name, Err: err}
	}

	if err := config.validate(); err != nil {
		return nil, wrap(err)
	}
	root, err := compilePath(rootPath)
	if err != nil {
		return nil, wrap(err)
	}

	seen := make(map[string]bool, len(fields))
	paths := make([]jsonPath, len(fields))
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		switch {
		case f.Name == "":
			return nil, wrap(fmt.Errorf("field %d has no name", i))
		case seen[f.Name]:
			return nil, wrap(fmt.Errorf("duplicate field %q", f.Name))
		case f.Direction < DirectionRequest || f.Direction > DirectionBoth:
			return nil, wrap(fmt.Errorf("field %q has no direction", f.Name))
		case f.Type < TypeBoolean || f.Type > TypeString:
			return nil, wrap(fmt.Errorf("field %q has an unsupported type", f.Name))
		}
		seen[f.Name] = true

		if f.Direction.IsResponse() {
			if f.JSONPath == "" {
				return nil, wrap(fmt.Errorf("response field %q has no json path", f.Name))
			}
			if paths[i], err = compilePath(f.JSONPath); err != nil {
				return nil, wrap(err)
			}
		}
		arrowFields[i] = f.ArrowField()
	}

	o := newOptions(opts)
	config.Addresses = append([]string(nil), config.Addresses...)
	config.Headers = append([]Header(nil), config.Headers...)

	t := &Table{
		name:      name,
		comment:   o.comment,
		root:      root,
		fields:    append([]Field(nil), fields...),
		paths:     paths,
		config:    config,
		props:     maps.Clone(o.props),
		schema:    arrow.NewSchema(arrowFields, nil),
		logger:    o.logger,
		metrics:   o.metrics,
		alloc:     o.alloc,
		batchSize: o.batchSize,
	}
	t.executor = newExecutor(name, t.config, o)
	return t, nil
}

// Name implements catalog.Table.
func (t *Table) Name() string { return t.name }

// Comment implements catalog.Table.
func (t *Table) Comment() string { return t.comment }

// ArrowSchema implements catalog.Table. It lists every field in declared order.
func (t *Table) ArrowSchema() *arrow.Schema { return t.schema }

// Fields returns the declared fields.
func (t *Table) Fields() []Field { return append([]Field(nil), t.fields...) }

// RowType returns the fields of rows produced with the given projection.
// A nil projection selects every field in declared order.
func (t *Table) RowType(projects []int) ([]Field, error) {
	columns, _, err := t.projection(projects)
	if err != nil {
		return nil, err
	}
	out := make([]Field, len(columns))
	for i, c := range columns {
		out[i] = t.fields[c]
	}
	return out, nil
}

// Rows starts a scan and fetches its first page.
//
// filters are implicitly AND-ed; those that cannot be expressed in the
// request are left to the caller. resolve maps column references in
// filters to field names, or nil to use binding indexes as field indexes.
// projects selects fields by index, nil meaning all fields.
//
// Request failures of the first page are returned here. Properties
// attached to ctx with WithProperties override those of
// WithStaticProperties.
func (t *Table) Rows(ctx context.Context, filters []filter.Expression, resolve ColumnResolver, projects []int) (*RowEnumerator, error) {
	columns, names, err := t.projection(projects)
	if err != nil {
		return nil, err
	}

	groups, err := Pushdown(filters, t.fields, resolve)
	if err != nil {
		t.logger.Warn("filters not pushed down", "table", t.name, "error", err)
		groups = nil
	}

	props := t.props
	if scoped := PropertiesFromContext(ctx); len(scoped) > 0 {
		props = maps.Clone(t.props)
		if props == nil {
			props = make(map[string]any, len(scoped))
		}
		maps.Copy(props, scoped)
	}

	reqCtx := BuildRequestContext(t, props, groups, names, t.config.initialOffset())
	t.logger.Debug("scan started", "table", t.name, "filter_groups", len(groups), "projects", names)

	rows := newRowEnumerator(ctx, t, reqCtx, columns)
	if !rows.fetch() {
		return nil, rows.err
	}
	return rows, nil
}

func (t *Table) projection(projects []int) ([]int, []string, error) {
	if projects == nil {
		columns := make([]int, len(t.fields))
		for i := range columns {
			columns[i] = i
		}
		return columns, nil, nil
	}
	names := make([]string, len(projects))
	for i, p := range projects {
		if p < 0 || p >= len(t.fields) {
			return nil, nil, fmt.Errorf("table %s: projected column %d out of range [0, %d)", t.name, p, len(t.fields))
		}
		names[i] = t.fields[p].Name
	}
	return append([]int(nil), projects...), names, nil
}

// fetchPage requests one page and converts it to rows of the given columns.
func (t *Table) fetchPage(ctx context.Context, reqCtx *RequestContext, pinned string, columns []int) (string, [][]any, error) {
	resp, err := t.executor.Fetch(ctx, reqCtx.Values, pinned)
	if err != nil {
		return "", nil, err
	}
	if len(t.fields) == 0 {
		return resp.Address, nil, nil
	}

	raws, err := extractRows(resp.Body, t.root)
	if err != nil {
		return "", nil, err
	}

	rows := make([][]any, len(raws))
	for i, raw := range raws {
		row := make([]any, len(columns))
		for j, c := range columns {
			f := t.fields[c]
			var v any
			if f.Direction.IsResponse() {
				v, _ = raw.read(t.paths[c])
			} else {
				v = reqCtx.Bound[f.Name]
			}
			if row[j], err = Coerce(f.Type, v); err != nil {
				var ce *CoercionError
				if errors.As(err, &ce) {
					ce.Field = f.Name
				}
				return "", nil, err
			}
		}
		rows[i] = row
	}

	t.metrics.page(t.name, len(rows))
	t.logger.Debug("page fetched", "table", t.name, "address", resp.Address, "offset", reqCtx.Values["offset"], "rows", len(rows))
	return resp.Address, rows, nil
}
