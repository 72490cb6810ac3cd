package s3client

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// Common errors
var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrObjectNotFound = errors.New("object not found")
)

// minioCode returns the S3 error code anywhere in err's chain
func minioCode(err error) (minio.ErrorResponse, bool) {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) && minioErr.Code != "" {
		return minioErr, true
	}
	return minio.ErrorResponse{}, false
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrBucketNotFound) || errors.Is(err, ErrObjectNotFound) {
		return true
	}

	// Check MinIO error
	if minioErr, ok := minioCode(err); ok {
		switch minioErr.Code {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// IsAuthError checks if an error is an authentication or authorization error
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	// Check MinIO error
	if minioErr, ok := minioCode(err); ok {
		switch minioErr.Code {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AuthorizationHeaderMalformed":
			return true
		}
	}
	return false
}

// FormatError formats an error for log output
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	if minioErr, ok := minioCode(err); ok {
		return fmt.Sprintf("S3 error: %s (code: %s)", minioErr.Message, minioErr.Code)
	}

	return err.Error()
}
