/*
Copyright 2025 The zoneops Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package recordsync implements the record_sync controllers, one per
// record kind, which push bound records onto the primary instances of
// their zone.
//
// # Controller Responsibilities
//
// The record_binder controllers decide which zone a record belongs to
// (status.zoneRef); this package acts on that decision:
//   - Rendering the record into an RRset and pushing it to every primary
//     instance of the bound zone (pushes replace the existing RRset, so
//     spec edits converge without explicit diffing)
//   - Notifying primaries after a push so secondaries transfer promptly
//   - Maintaining the zone's record inventory (status.records)
//   - Withdrawing the RRset when the record unbinds or is deleted
//
// Secondaries are never contacted directly: they converge through zone
// transfer triggered by notify.
//
// # Cleanup
//
// A finalizer is held on every live record so deletion always passes
// through the reconciler while the object can still be rendered into the
// RRset to withdraw. Unbinding (the binder cleared or moved zoneRef) is
// detected by scanning zone inventories in the record's namespace for
// stale entries.
//
// # Status Conditions
//
// Ready reasons:
//   - RecordPushed: the RRset is live on every primary (message carries
//     the endpoint count)
//   - RecordPushFailed: at least one primary rejected the push
//   - ZoneReferenceNotFound: status.zoneRef names a zone that is gone
package recordsync
