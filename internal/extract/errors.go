package extract

import "errors"

// Failure taxonomy for a single extraction run. NotFound and NoLocator are
// permanent: retrying cannot change the outcome. FetchFailed, ParseFailed
// and ThresholdExceeded are transient and eligible for queue redelivery.
var (
	ErrNotFound          = errors.New("attachment not found")
	ErrNoLocator         = errors.New("attachment has no storage locator")
	ErrFetchFailed       = errors.New("storage fetch failed")
	ErrParseFailed       = errors.New("document parse failed")
	ErrThresholdExceeded = errors.New("page error threshold exceeded")
)

// Permanent reports whether err can never succeed on retry.
func Permanent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoLocator)
}
