/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"quickbox/internal/model"
)

// PresetName selects default formats and labelling for a batch export.
type PresetName string

const (
	// PresetReview is a labelled PDF for walkthroughs.
	PresetReview PresetName = "review"
	// PresetWeb produces unlabelled PNG and SVG pages.
	PresetWeb PresetName = "web"
	// PresetHandoff produces every format with labels.
	PresetHandoff PresetName = "handoff"
)

// Presets lists the known preset names.
var Presets = []PresetName{PresetReview, PresetWeb, PresetHandoff}

// BatchOptions controls BatchExport.
// - Formats overrides the preset's formats ("pdf", "png", "svg").
// - Labels overrides the preset's labelling when non-nil.
// - Name is the base name of the PDF; defaults to "quickbox".
type BatchOptions struct {
	Preset  PresetName
	Formats []string
	Labels  *bool
	Pages   []string
	Scale   float64
	Name    string
}

// BatchExport writes the document in several formats below outDir/<preset>/
// and returns every written file.
func BatchExport(d *model.Document, outDir string, opt BatchOptions) ([]string, error) {
	preset := opt.Preset
	if preset == "" {
		preset = PresetReview
	}
	formats := opt.Formats
	if len(formats) == 0 {
		var err error
		if formats, err = presetDefaultFormats(preset); err != nil {
			return nil, err
		}
	}
	labels := presetLabels(preset)
	if opt.Labels != nil {
		labels = *opt.Labels
	}
	name := opt.Name
	if name == "" {
		name = "quickbox"
	}
	base := filepath.Join(outDir, string(preset))

	var files []string
	for _, f := range formats {
		switch strings.ToLower(f) {
		case "pdf":
			res, err := ExportPDF(d, filepath.Join(base, "pdf", name+".pdf"), PDFOptions{Pages: opt.Pages, Labels: labels, Title: name})
			if err != nil {
				return files, fmt.Errorf("pdf: %w", err)
			}
			files = append(files, res.Path)
		case "png":
			out, err := ExportPNG(d, filepath.Join(base, "png"), PNGOptions{Pages: opt.Pages, Labels: labels, Scale: opt.Scale})
			files = append(files, out...)
			if err != nil {
				return files, fmt.Errorf("png: %w", err)
			}
		case "svg":
			out, err := ExportSVG(d, filepath.Join(base, "svg"), SVGOptions{Pages: opt.Pages, Labels: labels})
			files = append(files, out...)
			if err != nil {
				return files, fmt.Errorf("svg: %w", err)
			}
		default:
			return files, fmt.Errorf("unknown format: %s", f)
		}
	}
	return files, nil
}

func presetDefaultFormats(p PresetName) ([]string, error) {
	switch p {
	case PresetReview:
		return []string{"pdf"}, nil
	case PresetWeb:
		return []string{"png", "svg"}, nil
	case PresetHandoff:
		return []string{"pdf", "png", "svg"}, nil
	default:
		return nil, fmt.Errorf("unknown preset: %s", p)
	}
}

func presetLabels(p PresetName) bool {
	return p != PresetWeb
}
