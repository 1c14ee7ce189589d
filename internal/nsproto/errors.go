/*
Copyright 2025 The zoneops Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package nsproto

import (
	"errors"
	"fmt"
)

// Class partitions protocol failures by how the caller should react.
type Class int

const (
	// ClassTransient errors are retryable: network failures, timeouts,
	// 5xx responses.
	ClassTransient Class = iota
	// ClassAlreadySatisfied means the server already holds the desired
	// state. Callers fold these into success.
	ClassAlreadySatisfied
	// ClassValidation means the request itself is malformed and will never
	// succeed unchanged.
	ClassValidation
	// ClassNotSupported means the endpoint cannot perform the operation.
	// Callers may fall back to an equivalent operation sequence.
	ClassNotSupported
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassAlreadySatisfied:
		return "already-satisfied"
	case ClassValidation:
		return "validation"
	case ClassNotSupported:
		return "not-supported"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Error carries the failure class alongside the operation name and cause.
type Error struct {
	Class Class
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Transientf(op, format string, a ...any) error {
	return &Error{Class: ClassTransient, Op: op, Err: fmt.Errorf(format, a...)}
}

func AlreadySatisfiedf(op, format string, a ...any) error {
	return &Error{Class: ClassAlreadySatisfied, Op: op, Err: fmt.Errorf(format, a...)}
}

func Validationf(op, format string, a ...any) error {
	return &Error{Class: ClassValidation, Op: op, Err: fmt.Errorf(format, a...)}
}

func NotSupportedf(op, format string, a ...any) error {
	return &Error{Class: ClassNotSupported, Op: op, Err: fmt.Errorf(format, a...)}
}

func classOf(err error) (Class, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Class, true
	}
	return 0, false
}

// IsTransient reports whether err is retryable. Unclassified errors are
// treated as transient so that unexpected failures keep being retried.
func IsTransient(err error) bool {
	c, ok := classOf(err)
	return !ok || c == ClassTransient
}

func IsAlreadySatisfied(err error) bool {
	c, ok := classOf(err)
	return ok && c == ClassAlreadySatisfied
}

func IsValidation(err error) bool {
	c, ok := classOf(err)
	return ok && c == ClassValidation
}

func IsNotSupported(err error) bool {
	c, ok := classOf(err)
	return ok && c == ClassNotSupported
}
