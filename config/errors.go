package config

import (
	"errors"
	"fmt"
)

// Reason classifies why a configuration could not be loaded.
type Reason int

const (
	NotFound Reason = iota + 1
	ParseError
	MissingKey
	Invalid
)

var (
	ErrNotFound   = errors.New("configuration file not found")
	ErrParse      = errors.New("configuration could not be parsed")
	ErrMissingKey = errors.New("configuration lacks a required key")
	ErrInvalid    = errors.New("configuration is invalid")
)

func (r Reason) String() string {
	switch r {
	case NotFound:
		return "not-found"
	case ParseError:
		return "parse-error"
	case MissingKey:
		return "missing-key"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

func (r Reason) sentinel() error {
	switch r {
	case NotFound:
		return ErrNotFound
	case ParseError:
		return ErrParse
	case MissingKey:
		return ErrMissingKey
	case Invalid:
		return ErrInvalid
	}
	return nil
}

type LoadError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Reason.sentinel(), e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Reason.sentinel(), e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's reason, e.g. errors.Is(err, ErrMissingKey).
func (e *LoadError) Is(target error) bool {
	return target != nil && target == e.Reason.sentinel()
}
