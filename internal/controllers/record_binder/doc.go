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

// Package recordbinder implements the record_binder controllers, one per
// record kind, which attach record resources to the DNSZone that selects
// them.
//
// # Controller Responsibilities
//
// A zone advertises interest in records through spec.recordsFrom label
// selectors. The binder evaluates those selectors against each record's
// labels and writes the winning zone into the record's status.zoneRef.
// Pushing the record to name servers is left to the record_sync
// controllers, which act on the binding.
//
// # Binding Rules
//
//   - Only zones in the record's namespace are considered.
//   - Candidate zones are ordered by namespace/name; the first match
//     wins, so a record selected by several zones binds deterministically.
//   - When no zone selects the record, status.zoneRef is cleared and
//     Ready goes False with reason AwaitingZoneBinding.
//   - A binding is re-evaluated whenever the record or any zone in its
//     namespace changes, so label edits and zone deletions rebind or
//     unbind records without operator help.
package recordbinder
