package season

// RecoveryDecision is what a recovery policy wants done about a failed
// state commit. The core never assumes an interactive prompt exists; an
// embedding UI can supply a policy that asks the user.
type RecoveryDecision int

const (
	// Abort surfaces the error; the in-memory cache stays at its pre-call
	// value so the caller can retry the advancement safely.
	Abort RecoveryDecision = iota
	// Retry re-attempts the same commit.
	Retry
	// ReloadFromStore discards the in-memory cache and re-reads the
	// durable state, re-synchronizing the two views.
	ReloadFromStore
)

// RecoveryPolicy decides how to react to a commit failure. attempt counts
// commit tries so far (1 on the first failure).
type RecoveryPolicy func(err error, attempt int) RecoveryDecision

// DefaultRecovery retries a failed commit once, then aborts. Divergent
// in-memory and durable state is never silently accepted.
func DefaultRecovery(err error, attempt int) RecoveryDecision {
	if attempt <= 1 {
		return Retry
	}
	return Abort
}
