package types

import "github.com/pkg/errors"

// Error kinds surfaced by the feed. Concrete errors wrap one of these so that
// callers can use errors.Is while the underlying cause is preserved.
var (
	// ErrArchiveUnavailable means fetch and read both failed for an archive unit.
	ErrArchiveUnavailable = errors.New("archive unavailable")

	// ErrInvalidInterval means the interval is outside the supported set.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrTransportFailure means the live connection could not be kept after all retries.
	ErrTransportFailure = errors.New("transport failure")

	// ErrReplayFault is any other failure while merging or emitting replayed klines.
	ErrReplayFault = errors.New("replay fault")
)
