package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// RetryCaller retries failed contract calls with exponential backoff.
type RetryCaller struct {
	next       Caller
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewRetryCaller wraps next. maxRetries counts attempts after the first one.
func NewRetryCaller(next Caller, maxRetries int, backoff time.Duration, logger *zap.Logger) *RetryCaller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryCaller{
		next:       next,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// CallContract performs the call, retrying transient failures.
func (r *RetryCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var resp []byte
	err := WithRetry(ctx, r.maxRetries, r.backoff, func(ctx context.Context) error {
		var err error
		resp, err = r.next.CallContract(ctx, msg, blockNumber)
		if err != nil {
			to := ""
			if msg.To != nil {
				to = msg.To.Hex()
			}
			if isRevert(err) {
				return Permanent(err)
			}
			r.logger.Warn("contract call failed", zap.String("to", to), zap.Error(err))
		}
		return err
	})
	return resp, err
}

// revertCode is the JSON-RPC error code geth uses for reverted calls.
const revertCode = 3

// isRevert reports whether err is a deterministic EVM revert, which fails
// the same way on every attempt at the same block.
func isRevert(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertCode {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that WithRetry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithRetry runs fn until it succeeds, maxRetries is exhausted or ctx ends.
// The delay doubles after every failed attempt.
func WithRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
