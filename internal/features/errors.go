package features

import "errors"

// ErrExtractionFailed wraps any activity store failure during extraction.
var ErrExtractionFailed = errors.New("feature extraction failed")
