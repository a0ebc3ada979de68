package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hugr-lab/restapi-airport/render"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/multierr"
)

// BreakerConfig enables a circuit breaker per address. An address whose
// breaker is open is skipped as a failed attempt without a request.
type BreakerConfig struct {
	// ConsecutiveFailures opens the breaker. Zero disables breakers.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before letting a
	// probe request through. Zero uses the gobreaker default (60s).
	OpenTimeout time.Duration

	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// Response is a successful reply: the address that served it and its body.
type Response struct {
	Address string
	Body    []byte
}

// Executor renders and sends the request of a table, failing over between
// the configured addresses.
type Executor struct {
	table    string
	config   ConnectionConfig
	client   *http.Client
	renderer render.Renderer
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
	logger   *slog.Logger
	metrics  *Metrics
}

// NewExecutor creates an executor for the table named table. Only the
// transport related options (renderer, logger, metrics, breaker, HTTP
// client) are used.
func NewExecutor(table string, config ConnectionConfig, opts ...Option) *Executor {
	o := newOptions(opts)
	return newExecutor(table, config, o)
}

func newExecutor(table string, config ConnectionConfig, o *options) *Executor {
	e := &Executor{
		table:    table,
		config:   config,
		client:   o.client,
		renderer: o.renderer,
		logger:   o.logger,
		metrics:  o.metrics,
	}
	if e.client == nil {
		e.client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: config.ConnectTimeout}).DialContext,
				TLSHandshakeTimeout:   config.ConnectTimeout,
				ResponseHeaderTimeout: config.ResponseTimeout,
				MaxIdleConnsPerHost:   4,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}
	if o.breaker.ConsecutiveFailures > 0 {
		e.breakers = make(map[string]*gobreaker.CircuitBreaker[[]byte], len(config.Addresses))
		for _, addr := range config.Addresses {
			e.breakers[addr] = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
				Name:        table + "@" + addr,
				MaxRequests: o.breaker.HalfOpenRequests,
				Timeout:     o.breaker.OpenTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= o.breaker.ConsecutiveFailures
				},
				IsSuccessful: func(err error) bool {
					// the scan going away says nothing about the address
					return err == nil || errors.Is(err, context.Canceled)
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					e.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				},
			})
		}
	}
	return e
}

// Fetch performs one page request rendered from reqCtx.
//
// With pinned set, only that address is tried and a failure is returned as
// its *TransportError. Otherwise addresses are tried in order until one
// answers with a 2xx status and a readable body; if none does, the result
// is an *AllAttemptsFailedError listing every attempt.
func (e *Executor) Fetch(ctx context.Context, reqCtx map[string]any, pinned string) (*Response, error) {
	if pinned != "" {
		body, err := e.try(ctx, pinned, reqCtx)
		if err != nil {
			return nil, err
		}
		return &Response{Address: pinned, Body: body}, nil
	}

	var errs error
	for i, addr := range e.config.Addresses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			e.metrics.failover(e.table)
		}
		body, err := e.try(ctx, addr, reqCtx)
		if err == nil {
			return &Response{Address: addr, Body: body}, nil
		}
		e.logger.Warn("request attempt failed", "table", e.table, "address", addr, "error", err)
		errs = multierr.Append(errs, err)
	}
	return nil, &AllAttemptsFailedError{Attempts: multierr.Errors(errs)}
}

func (e *Executor) try(ctx context.Context, addr string, reqCtx map[string]any) ([]byte, error) {
	req, err := e.newRequest(ctx, addr, reqCtx)
	if err != nil {
		return nil, &TransportError{Address: addr, Err: err}
	}

	e.logger.Debug("sending request", "table", e.table, "method", req.Method, "url", req.URL.Redacted())
	start := time.Now()
	var body []byte
	if cb := e.breakers[addr]; cb != nil {
		body, err = cb.Execute(func() ([]byte, error) { return e.send(req) })
	} else {
		body, err = e.send(req)
	}
	e.metrics.observeRequest(e.table, addr, err, time.Since(start))
	if err != nil {
		return nil, &TransportError{Address: addr, Err: err}
	}
	return body, nil
}

func (e *Executor) newRequest(ctx context.Context, addr string, reqCtx map[string]any) (*http.Request, error) {
	path, err := e.renderer.Render(e.config.URL, reqCtx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if e.config.Body != "" {
		b, err := e.renderer.Render(e.config.Body, reqCtx)
		if err != nil {
			return nil, err
		}
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, e.config.method(), addr+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for _, h := range e.config.Headers {
		v, err := e.renderer.Render(h.Value, reqCtx)
		if err != nil {
			return nil, err
		}
		req.Header.Set(h.Name, v)
	}
	return req, nil
}

func (e *Executor) send(req *http.Request) ([]byte, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
