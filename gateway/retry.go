package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"voicecreate/service"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

// RetryOptions controls how transient REST failures are retried
type RetryOptions struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// OnRetry, when set, is called before every retry
	OnRetry func(op string, err error)
}

// DefaultRetryOptions retries three times over roughly three seconds
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:      3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

func (o RetryOptions) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.InitialInterval
	b.MaxInterval = o.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, o.MaxRetries), ctx)
}

// do runs fn, retrying transient failures, and maps the final error onto the
// service sentinels
func (g *Gateway) do(ctx context.Context, op string, fn func() error) error {
	notify := func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"op":    op,
			"wait":  wait,
			"error": err,
		}).Warn("Transient gateway error, retrying")
		if g.retry.OnRetry != nil {
			g.retry.OnRetry(op, err)
		}
	}

	err := backoff.RetryNotify(func() error {
		err := fn()
		if err == nil || isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, g.retry.newBackOff(ctx), notify)

	return classify(op, err)
}

func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isRESTNotFound(err):
		return fmt.Errorf("%s: %w", op, service.ErrNotFound)
	case isRateLimited(err):
		return fmt.Errorf("%s: %w: %v", op, service.ErrRateLimited, err)
	case isTransient(err):
		return fmt.Errorf("%s: %w: %v", op, service.ErrGatewayUnavailable, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func restStatus(err error) int {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return 0
	}
	return restErr.Response.StatusCode
}

func isRESTNotFound(err error) bool {
	return restStatus(err) == http.StatusNotFound
}

func isRateLimited(err error) bool {
	var rateErr *discordgo.RateLimitError
	return errors.As(err, &rateErr) || restStatus(err) == http.StatusTooManyRequests
}

func isTransient(err error) bool {
	if isRateLimited(err) || restStatus(err) >= http.StatusInternalServerError {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
