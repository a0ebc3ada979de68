package rest

import (
	"net/http"
	"strings"
	"time"
)

// Header is an ordered request header. Value is a template.
type Header struct {
	Name  string
	Value string
}

// ConnectionConfig describes how to reach the remote API.
// It is shared read-only by every scan of a table.
type ConnectionConfig struct {
	// Addresses are tried in order until one succeeds. Each is a base such
	// as "https://api.example.com" that the rendered URL is appended to.
	Addresses []string

	// Method is POST (case-insensitive) or anything else for GET.
	Method string

	// URL is the request path template, appended to the address.
	URL string

	// Body is an optional request body template.
	Body string

	Headers []Header

	// ConnectTimeout bounds dialing a remote address. Zero means no limit.
	ConnectTimeout time.Duration

	// ResponseTimeout bounds the wait for response headers. Zero means no limit.
	ResponseTimeout time.Duration

	// PageSize is the number of rows requested per page. Values <= 0
	// disable pagination: the table is read with a single request.
	PageSize int

	// PageStart is the index of the first page; the initial offset is
	// PageSize * PageStart.
	PageStart int
}

// SplitAddresses splits a comma-separated address list, trimming entries
// and skipping empty ones.
func SplitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *ConnectionConfig) validate() error {
	if len(c.Addresses) == 0 {
		return errorf("connection has no addresses")
	}
	for _, a := range c.Addresses {
		if strings.TrimSpace(a) == "" {
			return errorf("connection has an empty address")
		}
	}
	if c.URL == "" {
		return errorf("connection has no url")
	}
	for i, h := range c.Headers {
		if h.Name == "" {
			return errorf("header %d has no name", i)
		}
	}
	if c.ConnectTimeout < 0 || c.ResponseTimeout < 0 {
		return errorf("timeouts must not be negative")
	}
	if c.PageStart < 0 {
		return errorf("page start must not be negative")
	}
	return nil
}

func (c *ConnectionConfig) method() string {
	if strings.EqualFold(strings.TrimSpace(c.Method), http.MethodPost) {
		return http.MethodPost
	}
	return http.MethodGet
}

func (c *ConnectionConfig) initialOffset() int64 {
	if c.PageSize <= 0 {
		return 0
	}
	return int64(c.PageSize) * int64(c.PageStart)
}
