package storage

import "errors"

var (
	ErrEmptyObject   = errors.New("storage: empty object")
	ErrInvalidFolder = errors.New("storage: invalid folder")
)
