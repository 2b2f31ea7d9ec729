/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIsKind(t *testing.T) {
	err := DurationTooShort(Where{Scene: 2, File: "login.svg", Selector: "#prompt"}, "duration %dms below floor %dms", 1000, 1800)
	wrapped := fmt.Errorf("compile: %w", err)
	if !errors.Is(wrapped, ErrDurationTooShort) {
		t.Fatalf("expected ErrDurationTooShort, got %v", wrapped)
	}
	if errors.Is(wrapped, ErrTargetNotFound) {
		t.Fatalf("unexpected kind match")
	}
	var ae *Error
	if !errors.As(wrapped, &ae) || ae.Scene != 2 || ae.Selector != "#prompt" {
		t.Fatalf("errors.As lost context: %#v", ae)
	}
}

func TestErrorMessageCarriesLocation(t *testing.T) {
	msg := TargetNotFound(Where{Scene: 0, File: "a.svg", Selector: ".btn"}, "no element matches").Error()
	for _, want := range []string{"target not found", "scene 0", "a.svg", `".btn"`, "no element matches"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
	global := Configuration(Global, "no scenes").Error()
	if strings.Contains(global, "scene -1") {
		t.Fatalf("global error should not mention a scene: %q", global)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Measurement(Global, "caption").Wrap(cause)
	if !errors.Is(err, cause) || !errors.Is(err, ErrMeasurement) {
		t.Fatalf("wrap chain broken: %v", err)
	}
}
