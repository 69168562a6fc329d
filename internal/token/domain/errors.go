package domain

import "errors"

var ErrInvalidExpiresIn = errors.New("invalid_expires_in")
