package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrModel    = errors.New("embedding model error")
	ErrDatabase = errors.New("database error")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsModel(err error) bool {
	return errors.Is(err, ErrModel)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}
