package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Consistency selects the read consistency for every query in a run.
type Consistency string

const (
	Eventual Consistency = "eventual"
	Strong   Consistency = "strong"
)

// QuerySpec describes the range query every logical query issues. Built
// once from flags and shared read-only across all workers.
type QuerySpec struct {
	Table          string
	PartitionKey   string
	PartitionValue string
	SortKey        string
	SortStart      string // empty = unbounded below
	SortEnd        string // empty = unbounded above
	Consistency    Consistency
}

// RunConfig is the immutable shape of one benchmark run.
type RunConfig struct {
	NumQueries    int
	Warmup        int
	QPS           int           // logical-query starts per second, 0 = unlimited
	Parallelism   int           // max in-flight logical queries
	MaxRetries    int           // extra attempts after the first
	Timeout       time.Duration // per attempt, 0 = unbounded
	PoolSize      int           // HTTP connection pool for the backend client
	Region        string
	ProgressEvery int // progress snapshot every this many completions
}

// FailureKind classifies why a query attempt (or a whole logical query)
// failed.
type FailureKind int

const (
	KindNone FailureKind = iota
	KindThrottled
	KindTimeout
	KindTransientNetwork
	KindInvalidRequest
	KindUnauthorized
	KindOther

	kindCount
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindThrottled:
		return "throttled"
	case KindTimeout:
		return "timeout"
	case KindTransientNetwork:
		return "transient-network"
	case KindInvalidRequest:
		return "invalid-request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "other"
	}
}

// Retryable reports whether another attempt may succeed. Malformed
// requests and auth failures will fail identically every time, so they
// terminate the logical query immediately.
func (k FailureKind) Retryable() bool {
	switch k {
	case KindThrottled, KindTransientNetwork, KindTimeout:
		return true
	}
	return false
}

// QueryError tags an executor failure with its kind.
type QueryError struct {
	Kind FailureKind
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain. Untagged errors
// map to KindOther, except a bare deadline error which is a timeout.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindOther
}

// Outcome is the terminal result of one logical query. Latency covers
// the successful attempt only; failed attempts prior to a success count
// toward Attempts but never toward timing.
type Outcome struct {
	Index    int
	Latency  time.Duration
	Attempts int
	Kind     FailureKind
	Err      error
}

func (o Outcome) Success() bool { return o.Err == nil }

// Executor performs one remote query attempt. The deadline, if any,
// arrives through ctx; implementations must return promptly once it
// expires. Errors should be tagged with a QueryError so retry policy
// can classify them.
type Executor interface {
	Execute(ctx context.Context, spec QuerySpec) error
}
