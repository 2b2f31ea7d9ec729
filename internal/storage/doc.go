/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements the build cache.
// Compiled documents are kept in an embedded SQLite index at <dir>/cache.sqlite, keyed by a content hash of the
// scene list, every referenced SVG file and the effective build options.
// The index is disposable: a corrupt file is backed up and recreated empty, and entries are evicted least recently
// used first once the cache grows past its byte cap.
package storage
