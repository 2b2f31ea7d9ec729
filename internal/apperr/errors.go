/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package apperr defines the error taxonomy shared by the loader, the scene
// compiler and the measurement collaborators. Every error that aborts a build
// carries enough context (scene index, file, selector) for an author to fix
// the input.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind sentinels. Match with errors.Is(err, apperr.ErrTargetNotFound).
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrTargetNotFound   = errors.New("target not found")
	ErrDurationTooShort = errors.New("duration too short")
	ErrMeasurement      = errors.New("measurement error")
)

// NoScene marks errors that are not tied to a particular scene.
const NoScene = -1

// Error is the single concrete error type produced by compilation.
type Error struct {
	Kind     error
	Scene    int
	File     string
	Selector string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("error")
	}
	b.WriteString(":")
	if e.Scene >= 0 {
		fmt.Fprintf(b, " scene %d", e.Scene)
		if e.File != "" {
			fmt.Fprintf(b, " (%s)", e.File)
		}
	} else if e.File != "" {
		fmt.Fprintf(b, " %s", e.File)
	}
	if e.Selector != "" {
		fmt.Fprintf(b, " selector %q", e.Selector)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the kind sentinel of e.
func (e *Error) Is(target error) bool { return e.Kind != nil && target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Where identifies the authoring location of a failure.
type Where struct {
	Scene    int
	File     string
	Selector string
}

// Global is the location used for document-level failures.
var Global = Where{Scene: NoScene}

func newErr(kind error, w Where, format string, args ...any) *Error {
	return &Error{Kind: kind, Scene: w.Scene, File: w.File, Selector: w.Selector, Msg: fmt.Sprintf(format, args...)}
}

func Configuration(w Where, format string, args ...any) *Error {
	return newErr(ErrConfiguration, w, format, args...)
}

func TargetNotFound(w Where, format string, args ...any) *Error {
	return newErr(ErrTargetNotFound, w, format, args...)
}

func DurationTooShort(w Where, format string, args ...any) *Error {
	return newErr(ErrDurationTooShort, w, format, args...)
}

func Measurement(w Where, format string, args ...any) *Error {
	return newErr(ErrMeasurement, w, format, args...)
}

// Wrap attaches a cause to an Error and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}
