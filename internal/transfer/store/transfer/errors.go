package transfer

import "errors"

// ErrDuplicateNumber means the generated transfer number is taken; callers
// retry with a new one.
var ErrDuplicateNumber = errors.New("transfer number already in use")
