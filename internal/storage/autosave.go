/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"quickbox/internal/model"
)

const autosaveDirName = "autosave"

// AutosavePath returns where the unsaved state of docPath is written.
func AutosavePath(docPath string) string {
	name := filepath.Base(docPath)
	if docPath == "" {
		name = DefaultFileName
	}
	return filepath.Join(SidecarDir(docPath), autosaveDirName, name+".autosave.json")
}

// WriteAutosave stores d next to docPath without touching docPath itself or
// creating a backup. Used by scheduled autosave and the crash handler.
func WriteAutosave(docPath string, d model.Document, themes json.RawMessage) (string, error) {
	data, err := Encode(d, themes)
	if err != nil {
		return "", err
	}
	p := AutosavePath(docPath)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create autosave dir: %w", err)
	}
	if err := writeAtomic(p, data); err != nil {
		return "", err
	}
	return p, nil
}

// ReadAutosave returns the autosaved state of docPath. ok is false when none exists.
func ReadAutosave(docPath string) (h *Handle, ok bool, err error) {
	p := AutosavePath(docPath)
	h, err = readHandle(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	h.Path = docPath
	return h, true, nil
}

// ClearAutosave removes the autosave of docPath, if any.
func ClearAutosave(docPath string) error {
	err := os.Remove(AutosavePath(docPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
