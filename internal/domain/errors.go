package domain

import "errors"

// Error kinds surfaced by the enrichment pipeline and its collaborators.
// Callers classify with errors.Is; wrapped messages carry the detail
// (trade identifier, source id, underlying driver error).

// ErrSourceUnavailable means the change feed or position store could not be
// reached. Retryable; the cursor is untouched.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrSinkWrite means the enriched append or the aggregate rebuild failed.
// Retryable; the cursor is not advanced.
var ErrSinkWrite = errors.New("sink write failed")

// ErrDataIntegrity means a trade is missing required fields or carries
// out-of-range values. Not skipped silently; the wrapping message names the
// trade identifier.
var ErrDataIntegrity = errors.New("data integrity violation")

// ErrCycleInFlight means another pipeline instance holds the advisory lock
// for this source. The caller should back off and let the running cycle finish.
var ErrCycleInFlight = errors.New("enrichment cycle already in flight")
