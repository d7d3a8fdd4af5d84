/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements document persistence and indexing.
// It reads and writes the versioned JSON document format, migrating older
// shapes on load, and saves transactionally with timestamped backups.
// It also manages the embedded SQLite index in the sidecar directory next to
// the document (<dir>/.quickbox/index.sqlite), which keeps saved revisions and a
// full-text index over box text. The index is derived data and can be rebuilt.
package storage
