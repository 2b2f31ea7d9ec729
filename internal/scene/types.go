/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene defines the authored input: an ordered list of scenes, each
// one static SVG file plus the timed actions played over it.
package scene

import (
	"svgif/internal/svgdoc"
)

// ActionType tags the Action variant.
type ActionType string

const (
	Wait               ActionType = "wait"
	Click              ActionType = "click"
	ClickAppearOnHover ActionType = "clickAppearOnHover"
	MoveTo             ActionType = "moveTo"
	FadeIn             ActionType = "fadeIn"
	GrowIn             ActionType = "growIn"
	Type               ActionType = "type"
	ZoomToElement      ActionType = "zoomToElement"
	RevealList         ActionType = "revealList"

	// zoomTo is accepted in input files and normalized to ZoomToElement.
	zoomToAlias ActionType = "zoomTo"
)

// Action defaults in milliseconds.
const (
	DefaultWaitBeforeClick = 500
	DefaultLingerMs        = 500
	DefaultMaxScale        = 3.0
)

// Point is a 2D offset in scene user units.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Action is one timed unit of behavior. Which fields apply depends on Type.
type Action struct {
	Type            ActionType `json:"type" yaml:"type"`
	ElementSelector string     `json:"elementSelector,omitempty" yaml:"elementSelector,omitempty"`
	Duration        int        `json:"duration" yaml:"duration"` // ms, > 0
	// click, clickAppearOnHover
	Offset          *Point `json:"offset,omitempty" yaml:"offset,omitempty"`
	WaitBeforeClick *int   `json:"waitBeforeClick,omitempty" yaml:"waitBeforeClick,omitempty"`
	LingerMs        *int   `json:"lingerMs,omitempty" yaml:"lingerMs,omitempty"`
	// moveTo
	XY []float64 `json:"xy,omitempty" yaml:"xy,omitempty"`
	// zoomToElement
	MaxScale float64 `json:"maxScale,omitempty" yaml:"maxScale,omitempty"`
}

// IsClick reports whether the action moves the pointer onto a target and clicks.
func (a Action) IsClick() bool { return a.Type == Click || a.Type == ClickAppearOnHover }

// NeedsTarget reports whether the action resolves ElementSelector.
func (a Action) NeedsTarget() bool {
	switch a.Type {
	case Click, ClickAppearOnHover, FadeIn, GrowIn, Type, ZoomToElement, RevealList:
		return true
	}
	return false
}

func (a Action) WaitBeforeClickMs() int {
	if a.WaitBeforeClick != nil {
		return *a.WaitBeforeClick
	}
	return DefaultWaitBeforeClick
}

// Linger returns the dwell time after a click; 0 disables it.
func (a Action) Linger() int {
	if a.LingerMs != nil {
		return *a.LingerMs
	}
	return DefaultLingerMs
}

func (a Action) ZoomMaxScale() float64 {
	if a.MaxScale > 0 {
		return a.MaxScale
	}
	return DefaultMaxScale
}

// Scene is one static image plus its ordered actions and optional caption.
type Scene struct {
	SVGFileName string   `json:"svgFileName" yaml:"svgFileName"`
	Caption     string   `json:"caption,omitempty" yaml:"caption,omitempty"`
	Animations  []Action `json:"animations" yaml:"animations"`

	// Filled by LoadDocuments.
	Source []byte           `json:"-" yaml:"-"`
	Doc    *svgdoc.Document `json:"-" yaml:"-"`
}

// Duration sums the scene's action durations.
func (s Scene) Duration() int {
	total := 0
	for _, a := range s.Animations {
		total += a.Duration
	}
	return total
}

// Viewport overrides the output size.
type Viewport struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Scenario is a whole scene list file.
type Scenario struct {
	Viewport *Viewport `json:"viewport,omitempty" yaml:"viewport,omitempty"`
	Loop     *bool     `json:"loop,omitempty" yaml:"loop,omitempty"`
	Scenes   []Scene   `json:"scenes" yaml:"scenes"`

	// Dir resolves relative svgFileName values.
	Dir string `json:"-" yaml:"-"`
}

// TotalDuration is the length of the global timeline in ms.
func (s Scenario) TotalDuration() int {
	total := 0
	for _, sc := range s.Scenes {
		total += sc.Duration()
	}
	return total
}
