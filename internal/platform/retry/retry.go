// Package retry implements the single retry allowed for transient conflicts.
package retry

import (
	"context"
	"errors"

	apperrors "gametune/internal/platform/errors"
)

// OnConflict runs fn and, if it fails with apperrors.ErrConflict, runs it
// exactly once more. Any other error is returned as is.
func OnConflict(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !errors.Is(err, apperrors.ErrConflict) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fn(ctx)
}
