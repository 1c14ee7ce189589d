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

// Package instancestatus implements the instance_status_controller, which
// probes DNSInstance endpoints and reflects reachability in status
// conditions.
//
// The probe resolves the instance's endpoint and credentials, then asks
// the server for its status over the declared transport. Outcomes:
//   - Ready=True, reason EndpointResolved: the server answered
//   - Ready=False, reason CredentialsMissing: the credential Secret is
//     absent or incomplete; re-probed on the regular interval
//   - Ready=False, reason EndpointUnresolved: the server did not answer;
//     re-probed on a shorter interval
//
// The controller never mutates instance specs: DNSInstance deployments
// are owned externally and only observed here.
package instancestatus
