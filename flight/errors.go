package flight

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/restapi-airport/catalog"
	"github.com/hugr-lab/restapi-airport/rest"
)

// statusFromError converts a catalog or scan error into a gRPC status.
// Errors that already carry a status are returned unchanged.
func statusFromError(err error, msg string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var cfgErr *rest.ConfigurationError
	code := codes.Internal
	switch {
	case errors.As(err, &cfgErr):
		code = codes.InvalidArgument
	case errors.Is(err, catalog.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Errorf(code, "%s: %v", msg, err)
}
