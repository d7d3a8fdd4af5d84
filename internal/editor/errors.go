/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"

	"quickbox/internal/undo"
)

var (
	// ErrPolicyViolation: header or footer content touched while page 1 is not current.
	ErrPolicyViolation = errors.New("header and footer can only be edited on page 1")
	// ErrDanglingReference: a box, page or item id that does not resolve.
	ErrDanglingReference = errors.New("reference does not resolve")
	// ErrEmptyHistory: nothing to undo or redo.
	ErrEmptyHistory = undo.ErrEmptyHistory

	ErrNoSelection     = errors.New("nothing selected")
	ErrTransformActive = errors.New("a transform is in progress")
	ErrNoTransform     = errors.New("no transform in progress")
	ErrUnknownBoxType  = errors.New("unknown box type")
	ErrLastPage        = errors.New("the last page cannot be deleted")
	ErrInvalidValue    = errors.New("invalid value")
)
