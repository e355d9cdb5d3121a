package numbering

import (
	"context"

	"charter/internal/db"
	"charter/internal/domain"
)

// InsertWithRetry draws a number and runs insert with it, drawing a fresh
// number whenever the insert hits a unique violation. After the last attempt
// the store's error is returned wrapped in a ConflictError.
func InsertWithRetry(ctx context.Context, attempts int, next func(context.Context) (string, error), insert func(context.Context, string) error) (string, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		number, err := next(ctx)
		if err != nil {
			return "", err
		}
		err = insert(ctx, number)
		if err == nil {
			return number, nil
		}
		if !db.IsUniqueViolation(err) {
			return "", err
		}
		lastErr = err
	}
	return "", domain.ConflictError{Resource: "number", Msg: "number already taken", Err: lastErr}
}
