/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package svgdoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Elements whose whitespace-only text children are significant.
var keepSpace = map[string]bool{
	"text": true, "tspan": true, "textPath": true, "style": true, "script": true, "title": true, "desc": true,
}

// Parse reads an SVG document. Namespace prefixes are kept verbatim in
// element and attribute names so the tree serializes back unchanged.
// Comments, processing instructions and doctype declarations are dropped.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	doc := &Document{}
	var stack []*Node
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse svg: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := doc.NewElement(qualified(t.Name))
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fmt.Errorf("parse svg: multiple root elements")
				}
				doc.Root = n
			} else {
				stack[len(stack)-1].AppendChild(n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse svg: unexpected </%s>", qualified(t.Name))
			}
			top := stack[len(stack)-1]
			if name := qualified(t.Name); name != top.Name {
				return nil, fmt.Errorf("parse svg: </%s> closes <%s>", name, top.Name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			s := string(t)
			if strings.TrimSpace(s) == "" && !keepSpace[parent.Name] {
				continue
			}
			// merge adjacent text, e.g. around CDATA sections
			if k := len(parent.Children); k > 0 && parent.Children[k-1].Kind == TextNode {
				parent.Children[k-1].Text += s
				continue
			}
			parent.AppendChild(NewText(s))
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("parse svg: unclosed <%s>", stack[len(stack)-1].Name)
	}
	if doc.Root == nil || doc.Root.Name != "svg" {
		return nil, fmt.Errorf("parse svg: root element is not <svg>")
	}
	return doc, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) { return Parse(strings.NewReader(s)) }

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
