package session

import (
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jpillora/backoff"
)

const (
	reconnectBaseDelay = 2 * time.Second
	reconnectMaxDelay  = 60 * time.Second
	reconnectJitterMax = 500 * time.Millisecond
	reconnectFloor     = 250 * time.Millisecond

	// attempts beyond this no longer grow the exponent, the delay is flat at
	// the cap from here on
	reconnectMaxExponent = 6

	// duplicateSessionCooldown replaces the computed backoff when the server
	// rejects us because the identity is already online; hot-retrying such a
	// rejection only extends the lockout.
	duplicateSessionCooldown = 30 * time.Second
)

// duplicateSessionMarkers are kick-reason substrings that indicate the same
// identity is still active server-side.
var duplicateSessionMarkers = []string{
	"already online",
	"duplicate login",
	"logged in from another location",
}

// Reconnector schedules session re-dials with exponential backoff and
// jitter. It is guarded by a wants-connected flag set on the first
// user-initiated connect and cleared only by a user-initiated disconnect;
// while the flag is down nothing is ever scheduled. At most one timer is
// pending at a time.
//
// Not internally synchronized; the owning session serializes every call.
type Reconnector struct {
	logger *slog.Logger
	clock  Clock

	// redial is invoked when a scheduled timer fires. It runs under the
	// session's serialization, like every other timer callback.
	redial func()

	curve *backoff.Backoff

	attempt        int
	wantsConnected bool
	timer          Timer
}

func NewReconnector(logger *slog.Logger, clock Clock, redial func()) *Reconnector {
	return &Reconnector{
		logger: logger,
		clock:  clock,
		redial: redial,
		curve: &backoff.Backoff{
			Min:    reconnectBaseDelay,
			Max:    reconnectMaxDelay,
			Factor: 2,
			Jitter: false, // jitter is added separately so the curve itself stays testable
		},
	}
}

// SetWantsConnected raises or lowers the guard flag. Lowering it cancels any
// pending timer and resets the attempt counter; this is the only reset path,
// a dropped connection keeps the counter growing.
func (r *Reconnector) SetWantsConnected(wants bool) {
	r.wantsConnected = wants
	if !wants {
		r.Cancel()
		r.attempt = 0
	}
}

// WantsConnected reports the guard flag.
func (r *Reconnector) WantsConnected() bool {
	return r.wantsConnected
}

// Scheduled reports whether a reconnect timer is pending.
func (r *Reconnector) Scheduled() bool {
	return r.timer != nil
}

// Attempt returns the monotonic attempt counter.
func (r *Reconnector) Attempt() int {
	return r.attempt
}

// Schedule arms the reconnect timer, unless the guard flag is down or a
// timer is already pending (idempotent). Returns the armed delay and whether
// a timer was armed.
func (r *Reconnector) Schedule(reason string) (time.Duration, bool) {
	if !r.wantsConnected {
		r.logger.Debug("reconnect not wanted, skipping", slog.String("reason", reason))
		return 0, false
	}
	if r.timer != nil {
		r.logger.Debug("reconnect already scheduled, skipping", slog.String("reason", reason))
		return 0, false
	}

	delay := r.DelayForAttempt(r.attempt)
	if override, ok := overrideDelay(reason); ok {
		delay = override
	}
	r.attempt++

	r.logger.Info("scheduling reconnect",
		slog.Int("attempt", r.attempt),
		slog.Duration("delay", delay),
		slog.String("reason", reason),
	)
	r.timer = r.clock.AfterFunc(delay, func() {
		r.timer = nil
		if !r.wantsConnected {
			return
		}
		r.redial()
	})

	return delay, true
}

// Cancel stops the pending timer, if any. Called when a fresh connect is
// started through another path.
func (r *Reconnector) Cancel() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// DelayForAttempt computes the backoff delay for one attempt:
// min(max, base*2^min(attempt, 6)) plus uniform jitter up to 500ms, floored
// at 250ms.
func (r *Reconnector) DelayForAttempt(attempt int) time.Duration {
	exp := attempt
	if exp > reconnectMaxExponent {
		exp = reconnectMaxExponent
	}
	d := r.curve.ForAttempt(float64(exp))
	d += time.Duration(rand.Int63n(int64(reconnectJitterMax)))
	if d < reconnectFloor {
		d = reconnectFloor
	}
	return d
}

// BaseDelayForAttempt is DelayForAttempt without jitter, exposed for the
// backoff-curve property test.
func (r *Reconnector) BaseDelayForAttempt(attempt int) time.Duration {
	exp := attempt
	if exp > reconnectMaxExponent {
		exp = reconnectMaxExponent
	}
	return r.curve.ForAttempt(float64(exp))
}

func overrideDelay(reason string) (time.Duration, bool) {
	lower := strings.ToLower(reason)
	for _, marker := range duplicateSessionMarkers {
		if strings.Contains(lower, marker) {
			return duplicateSessionCooldown, true
		}
	}
	return 0, false
}
