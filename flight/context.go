package flight

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/hugr-lab/restapi-airport/auth"
	"github.com/hugr-lab/restapi-airport/rest"
)

type contextKey int

const airportParamsKey contextKey = iota

// Metadata header keys read from incoming requests.
const (
	// HeaderAuthorization is the gRPC metadata header for authorization token.
	HeaderAuthorization = "authorization"
	// HeaderTraceID is the gRPC metadata header for distributed trace identifier.
	HeaderTraceID = "airport-trace-id"
	// HeaderSessionID is the gRPC metadata header for client session identifier.
	HeaderSessionID = "airport-client-session-id"
	// PropertyHeaderPrefix marks headers passed to request templates as
	// properties, with the prefix stripped.
	PropertyHeaderPrefix = "restapi-prop-"
)

// ContextMeta is the request metadata extracted from gRPC headers.
type ContextMeta struct {
	Authorization string
	TraceID       string
	SessionID     string
	Properties    map[string]string
}

func WithContextMeta(ctx context.Context, meta ContextMeta) context.Context {
	return context.WithValue(ctx, airportParamsKey, &meta)
}

func MetaFromContext(ctx context.Context) *ContextMeta {
	meta, _ := ctx.Value(airportParamsKey).(*ContextMeta)
	return meta
}

// AuthorizationFromContext retrieves the authorization header from context.
// Returns empty string if not set.
func AuthorizationFromContext(ctx context.Context) string {
	if meta := MetaFromContext(ctx); meta != nil {
		return meta.Authorization
	}
	return ""
}

// TraceIDFromContext returns the trace ID from context, or empty string if not set.
func TraceIDFromContext(ctx context.Context) string {
	if meta := MetaFromContext(ctx); meta != nil {
		return meta.TraceID
	}
	return ""
}

// EnrichContextMetadata extracts metadata from gRPC context and
// returns a new context with the metadata stored.
// If the context is already enriched, it is returned unchanged.
func EnrichContextMetadata(ctx context.Context) context.Context {
	if MetaFromContext(ctx) != nil {
		return ctx
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}

	var meta ContextMeta
	if values := md.Get(HeaderAuthorization); len(values) > 0 {
		meta.Authorization = values[0]
	}
	if values := md.Get(HeaderTraceID); len(values) > 0 {
		meta.TraceID = values[0]
	}
	if values := md.Get(HeaderSessionID); len(values) > 0 {
		meta.SessionID = values[0]
	}
	for key, values := range md {
		name, found := strings.CutPrefix(key, PropertyHeaderPrefix)
		if !found || name == "" || len(values) == 0 {
			continue
		}
		if meta.Properties == nil {
			meta.Properties = make(map[string]string)
		}
		meta.Properties[name] = values[0]
	}
	return WithContextMeta(ctx, meta)
}

// scanContext attaches the request metadata to ctx as properties for the
// request templates of REST tables.
func scanContext(ctx context.Context) context.Context {
	props := make(map[string]any)
	if meta := MetaFromContext(ctx); meta != nil {
		for k, v := range meta.Properties {
			props[k] = v
		}
		if meta.Authorization != "" {
			props["authorization"] = meta.Authorization
		}
		if meta.TraceID != "" {
			props["trace_id"] = meta.TraceID
		}
		if meta.SessionID != "" {
			props["session_id"] = meta.SessionID
		}
	}
	if identity := auth.IdentityFromContext(ctx); identity != "" {
		props["identity"] = identity
	}
	if len(props) == 0 {
		return ctx
	}
	return rest.WithProperties(ctx, props)
}
