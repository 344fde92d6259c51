package service

import (
	"context"
	"errors"

	"inventory-rest-api/internal/logger"
	"inventory-rest-api/pkg/apierror"
)

// upstream logs err with detail and returns the generic error the client
// sees. Errors that already are *apierror.Error pass through.
func upstream(ctx context.Context, message string, err error) error {
	if apiErr, ok := apierror.As(err); ok {
		if apiErr.Code == apierror.CodeConsistency {
			logger.FromContext(ctx).Error("inventory history write failed, product write rolled back",
				"error", errors.Unwrap(apiErr))
		}
		return apiErr
	}
	logger.FromContext(ctx).Error(message, "error", err)
	return apierror.Upstream(message, err)
}
