package detection

import "errors"

// ErrInvalidParameter is wrapped by every parameter validation failure in this
// package. Test with errors.Is.
var ErrInvalidParameter = errors.New("invalid parameter")
