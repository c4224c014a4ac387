// Package errs translates MinIO errors into the store error taxonomy.
package errs

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/objstore/core"
)

// Translate converts MinIO errors to the sentinels in core.
//
// Transport failures and server-side 5xx responses map to
// core.ErrUnavailable; context cancellation passes through untouched.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	errResp := minio.ToErrorResponse(err)

	switch errResp.Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchUpload", "NotFound":
		return core.ErrNotFound
	case "AccessDenied", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return core.ErrPermission
	case "InvalidRange":
		return core.ErrInvalidRange
	case "InvalidArgument", "XMinioInvalidObjectName", "KeyTooLongError":
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	case "PreconditionFailed", "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return core.ErrAlreadyExists
	case "SlowDown", "ServiceUnavailable", "InternalError":
		return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}

	if errResp.StatusCode >= 500 {
		return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}
	if errResp.Code == "" {
		// No server response at all: dial, TLS, or timeout failure.
		return fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}

	return fmt.Errorf("minio: %w", err)
}
