package ledger

import "context"

// ConsistencyLevel defines the consistency requirements for loan store reads.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database to ensure
	// read-after-write consistency. This is the default: the lifecycle
	// operations perform read-check-write sequences and must see their own
	// writes immediately.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from replica databases, trading
	// consistency for performance. Suitable for the read-only projections
	// (active, overdue, history) which tolerate a slightly stale snapshot.
	EventualConsistency
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// consistencyLevelKey is the context key used to store consistency level preferences.
const consistencyLevelKey contextKey = "ledger.consistency_level"

// WithStrongConsistency returns a context that signals loan store reads
// must use the primary database.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that signals loan store reads
// may use a replica database.
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context,
// defaulting to StrongConsistency when none is set.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(consistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// String provides a string representation of ConsistencyLevel for logging and debugging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
