package match

import "errors"

var ErrTooManyClients = errors.New("too many clients")
