/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"svgif/internal/apperr"
)

var actionTypes = []interface{}{Wait, Click, ClickAppearOnHover, MoveTo, FadeIn, GrowIn, Type, ZoomToElement, RevealList}

// Validate checks a single action's fields.
func (a Action) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Type, validation.Required, validation.In(actionTypes...)),
		validation.Field(&a.Duration, validation.Required, validation.Min(1)),
		validation.Field(&a.ElementSelector, validation.When(a.NeedsTarget(), validation.Required)),
		validation.Field(&a.XY, validation.When(a.Type == MoveTo, validation.Required, validation.Length(2, 2))),
		validation.Field(&a.MaxScale, validation.Min(0.0)),
	)
}

// Validate checks one scene. Actions are validated element-wise.
func (s Scene) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.SVGFileName, validation.Required),
		validation.Field(&s.Animations, validation.Required.Error("scene has no actions")),
	)
}

// Validate checks the whole scenario and reports the first problem as an
// *apperr.Error carrying the scene index and file name.
func (s Scenario) Validate() error {
	if len(s.Scenes) == 0 {
		return apperr.Configuration(apperr.Global, "scene list is empty")
	}
	if s.Viewport != nil && (s.Viewport.Width <= 0 || s.Viewport.Height <= 0) {
		return apperr.Configuration(apperr.Global, "viewport needs a positive width and height")
	}
	for i, sc := range s.Scenes {
		where := apperr.Where{Scene: i, File: sc.SVGFileName}
		if err := sc.Validate(); err != nil {
			return apperr.Configuration(where, "%v", err)
		}
		if i > 0 && sc.SVGFileName == s.Scenes[i-1].SVGFileName {
			return apperr.Configuration(where, "uses the same image as the previous scene")
		}
	}
	return nil
}
