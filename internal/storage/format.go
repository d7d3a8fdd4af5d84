/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"quickbox/internal/model"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// FormatVersion is written into every saved document.
const FormatVersion = "0.3"

// ErrMalformedDocument is returned when a file cannot be parsed or does not
// have the shape of any known document version.
var ErrMalformedDocument = errors.New("malformed document")

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func documentSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Format identifies the shape a document was loaded from.
type Format string

const (
	// FormatSinglePage is the oldest shape: a top-level boxes array.
	FormatSinglePage Format = "boxes"
	// FormatPages has a pages array but no shared header or footer.
	FormatPages Format = "pages"
	// FormatCurrent carries header, footer and pages.
	FormatCurrent Format = "current"
)

// fileDocument is the on-disk shape. It is a superset of every version.
type fileDocument struct {
	Version       any             `json:"version,omitempty"`
	Header        *model.Region   `json:"header,omitempty"`
	Footer        *model.Region   `json:"footer,omitempty"`
	Pages         []model.Page    `json:"pages"`
	CurrentPageID *string         `json:"currentPageId,omitempty"`
	Themes        json.RawMessage `json:"themes,omitempty"`

	// single-page documents
	Boxes      []model.Box      `json:"boxes,omitempty"`
	CanvasSize model.CanvasSize `json:"canvasSize,omitempty"`
}

// Decoded is the result of reading a document file.
type Decoded struct {
	Doc      model.Document
	Counters model.Counters
	Format   Format
	// Themes is kept verbatim so it survives a load/save cycle.
	Themes json.RawMessage
}

// Decode parses a document in any known version and migrates it to the
// current model. Counters are always recomputed from the content.
func Decode(data []byte) (Decoded, error) {
	s, err := documentSchema()
	if err != nil {
		return Decoded{}, fmt.Errorf("load document schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Decoded{}, fmt.Errorf("%w: %s", ErrMalformedDocument, strings.Join(msgs, "; "))
	}
	var f fileDocument
	if err := json.Unmarshal(data, &f); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	out := migrate(f)
	if err := model.Validate(&out.Doc); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	out.Counters = model.RecomputeCounters(&out.Doc)
	return out, nil
}

func migrate(f fileDocument) Decoded {
	out := Decoded{Themes: f.Themes, Format: FormatCurrent}
	d := &out.Doc
	switch {
	case f.Boxes != nil:
		out.Format = FormatSinglePage
		p := model.NewPage(1)
		if f.CanvasSize != "" {
			p.CanvasSize = f.CanvasSize
		}
		p.Boxes = f.Boxes
		d.Pages = []model.Page{p}
		d.CurrentPageID = p.ID
	default:
		if f.Header == nil && f.Footer == nil {
			out.Format = FormatPages
		}
		d.Pages = f.Pages
		if f.CurrentPageID != nil {
			d.CurrentPageID = *f.CurrentPageID
		}
	}
	if len(d.Pages) == 0 {
		d.Pages = []model.Page{model.NewPage(1)}
	}
	d.Header = region(f.Header)
	d.Footer = region(f.Footer)
	for i := range d.Pages {
		p := &d.Pages[i]
		if p.Boxes == nil {
			p.Boxes = []model.Box{}
		}
		if p.CanvasSize == "" {
			p.CanvasSize = model.CanvasDesktop
		}
		if p.Name == "" {
			p.Name = p.ID
		}
	}
	if d.CurrentPage() == nil {
		d.CurrentPageID = d.Pages[0].ID
	}
	d.EachBox(func(_ model.RegionID, _ string, b *model.Box) { b.NormalizeItems() })
	return out
}

func region(r *model.Region) model.Region {
	if r == nil {
		return model.Region{Boxes: []model.Box{}, Height: model.DefaultRegionHeight}
	}
	out := *r
	if out.Boxes == nil {
		out.Boxes = []model.Box{}
	}
	if out.Height <= 0 {
		out.Height = model.DefaultRegionHeight
	}
	return out
}

// Encode renders d in the current format. themes may be nil.
func Encode(d model.Document, themes json.RawMessage) ([]byte, error) {
	cur := d.CurrentPageID
	f := fileDocument{
		Version:       FormatVersion,
		Header:        &d.Header,
		Footer:        &d.Footer,
		Pages:         d.Pages,
		CurrentPageID: &cur,
		Themes:        themes,
	}
	if f.Pages == nil {
		f.Pages = []model.Page{}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}
