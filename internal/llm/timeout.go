package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout borne chaque appel à la gateway. Le dépassement est rapporté par
// ErrGatewayTimeout ; une annulation du contexte parent reste une annulation.
func WithTimeout(next Gateway, timeout time.Duration) Gateway {
	if timeout <= 0 {
		return next
	}

	return GatewayFunc(func(ctx context.Context, req Request) (Response, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := next.Generate(callCtx, req)
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w after %s: %w", ErrGatewayTimeout, timeout, err)
		}
		return resp, err
	})
}
