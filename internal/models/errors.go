// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error crossing a package boundary wraps exactly one.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidationFailed   = errors.New("validation failed")
)

// Error is a classified error: Kind says how callers should react,
// Err carries the underlying cause.
type Error struct {
	Kind    error
	Op      string // e.g. "increment views", "get product"
	Subject string // product or user id, when there is one
	Err     error
}

// NewError builds a classified error.
func NewError(kind error, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Subject != "" {
		msg += " " + e.Subject
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFoundf returns an ErrNotFound error for subject.
func NotFoundf(op, subject string) *Error {
	return NewError(ErrNotFound, op, subject, nil)
}

// Invalidf returns an ErrInvalidRequest error with a formatted cause.
func Invalidf(op, format string, args ...any) *Error {
	return NewError(ErrInvalidRequest, op, "", fmt.Errorf(format, args...))
}

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrStorageUnavailable) }

// IsInvalid reports whether err is a client error (bad params or failed validation).
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrValidationFailed)
}
