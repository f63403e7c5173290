package sports

import (
	"context"
	"errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/sirupsen/logrus"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

// RetryingClient retries failed fetches with exponential backoff.
// Client errors (4xx except 429) are not retried.
type RetryingClient struct {
	inner          Client
	maxRetries     uint64
	initialBackoff time.Duration
}

func NewRetryingClient(inner Client, maxRetries int, initialBackoff time.Duration) *RetryingClient {
	if maxRetries <= 0 {
		maxRetries = defaultRetryAttempts
	}
	if initialBackoff <= 0 {
		initialBackoff = defaultBackoff
	}
	return &RetryingClient{
		inner:          inner,
		maxRetries:     uint64(maxRetries),
		initialBackoff: initialBackoff,
	}
}

func (r *RetryingClient) FetchGames(ctx context.Context, league model.League) ([]model.Game, error) {
	var games []model.Game
	operation := func() error {
		var err error
		games, err = r.inner.FetchGames(ctx, league)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = r.initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(exponential, r.maxRetries), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		logrus.Warnf("Retry %s fetch in %v: %v", league, wait, err)
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}
