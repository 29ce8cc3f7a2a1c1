package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig = fmt.Errorf("context0: invalid config")
	ErrNotFound      = fmt.Errorf("context0: not found")
	ErrInvalidParams = fmt.Errorf("context0: invalid params")
	ErrInternal      = fmt.Errorf("context0: internal error")
)
