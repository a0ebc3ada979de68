// Package recovery converts panics in table scans into errors so a broken
// table definition cannot take the server down.
package recovery

import (
	"log/slog"
	"runtime/debug"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoverToError runs fn, converting a panic into a gRPC Internal error.
//
// Example:
//
//	err := recovery.RecoverToError(logger, "Write", func() error {
//	    return writer.Write(record)
//	})
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "%s panicked: %v", operation, r)
		}
	}()
	return fn()
}

// RecoverToValue is RecoverToError for functions returning a value.
// On panic the zero value is returned.
//
// Example:
//
//	reader, err := recovery.RecoverToValue(logger, "Scan", func() (array.RecordReader, error) {
//	    return table.Scan(ctx, opts)
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			var zero T
			result = zero
			err = status.Errorf(codes.Internal, "%s panicked: %v", operation, r)
		}
	}()
	return fn()
}
