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
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
)

// PageFileName names the output of the n-th exported page (1-based), e.g.
// "02-pricing-details.png". Pages whose name slugs to nothing fall back to
// their id.
func PageFileName(n int, f Frame, ext string) string {
	s := slug.Make(f.Name)
	if s == "" {
		s = slug.Make(f.PageID)
	}
	return fmt.Sprintf("%02d-%s.%s", n, s, ext)
}

// DocumentFileName derives an export file name from a document path, e.g.
// "Shop Mockup.json" -> "shop-mockup.pdf".
func DocumentFileName(docPath, ext string) string {
	base := filepath.Base(docPath)
	s := slug.Make(base[:len(base)-len(filepath.Ext(base))])
	if s == "" {
		s = "quickbox"
	}
	return s + "." + ext
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}
