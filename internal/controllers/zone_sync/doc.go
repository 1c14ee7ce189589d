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

// Package zonesync implements the zone_sync_controller, which drives
// declared DNSZone resources onto the name-server instances that must
// serve them.
//
// # Controller Responsibilities
//
// The controller keeps every targeted instance authoritative for the zone:
//   - Resolving the target set from spec.clusterRef and spec.instancesFrom
//   - Claiming newly targeted instances and unclaiming departed ones
//   - Creating primary zones (SOA, default TTL, glue, transfer topology)
//   - Creating secondary zones pointed at the resolved primaries
//   - Reshaping primary transfer/notify topology when the secondary set
//     changes
//   - Removing zones from instances that left the target set
//
// # Watched Resources
//
// The controller watches:
//   - DNSZone: the declared zone
//   - DNSInstance: to re-evaluate zones when instances appear, move
//     between clusters, or change labels
//
// # Reconciliation Flow
//
//  1. Reject zones whose spec.zoneName is already claimed by another
//     DNSZone (Ready=False, reason DuplicateZoneName).
//  2. Resolve the target instance set.
//  3. Diff status.instances against the resolved set: new targets are
//     recorded as Claimed and departed ones as Unclaimed. This status
//     write happens before any network dispatch so that a crash never
//     loses track of an instance that may hold the zone.
//  4. Dispatch per instance, bounded in parallel:
//     - primaries get AddPrimaryZone, or UpdatePrimaryZone when only the
//       transfer/notify topology drifted (falling back to delete and
//       recreate when the endpoint cannot reshape in place);
//     - secondaries get AddSecondaryZone with the primary endpoints.
//     "Already exists" answers fold into success.
//  5. Unclaimed instances get DeleteZone; their entry leaves
//     status.instances only after the removal succeeds.
//  6. The secondary address snapshot (status.secondaryIPs) is persisted
//     only after every primary accepted the new topology, so an aborted
//     reshape is retried on the next pass.
//
// # Status Conditions
//
// Ready reasons, in evaluation order:
//   - ValidationFailed / DuplicateZoneName: spec cannot be applied
//   - NoTargets: empty target set (vacuously ready)
//   - PrimaryFailed: at least one primary dispatch failed
//   - SecondaryFailed: all primaries fine, a secondary dispatch failed
//   - Progressing: dispatches still pending
//   - AllInstancesConfigured: every targeted instance acknowledged
package zonesync
