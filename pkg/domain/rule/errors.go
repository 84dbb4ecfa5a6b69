package rule

import "errors"

// ErrInvalidRule marks a rule that fails IsValid: an empty term, a severity
// outside 1-10, or an unknown match mode.
var ErrInvalidRule = errors.New("invalid rule")
