// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the task store abstraction for studyforge.
//
// The orchestrator keeps every task record behind the Store interface so that
// the in-memory default can be swapped for a shared backend:
//
//   - memory: map guarded by a mutex, for tests and single-process use
//   - badger: BadgerDB, in memory or on disk, with per-entry TTL
//   - redis: a Redis server, with key expiry
//
// # Retention
//
// Records expire Retention after their last write (DefaultRetention unless
// configured). Case bindings expire on the same schedule. An expired task
// reads as ErrNotFound and a case bound to it is treated as unbound by the
// orchestrator.
//
// # Updates
//
// Update is the only way to change a stored task. It is a read-modify-write
// under the backend's own isolation, so the workflow writing a task and the
// HTTP handlers reading it never observe a half-applied transition.
//
// # Encoding
//
// Backends that persist bytes use EncodeTask and DecodeTask. The encoding is
// the same JSON the HTTP API returns.
package storage
