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

package v1alpha1

// Condition types shared across zone, instance and record statuses.
const (
	// ConditionTypeReady is the single user-facing readiness signal on
	// every resource in the group.
	ConditionTypeReady = "Ready"
)

// Reasons for the Ready condition on DNSZone.
const (
	ReasonAllInstancesConfigured = "AllInstancesConfigured"
	ReasonProgressing            = "Progressing"
	ReasonPrimaryFailed          = "PrimaryFailed"
	ReasonSecondaryFailed        = "SecondaryFailed"
	ReasonNoTargets              = "NoTargets"
	ReasonValidationFailed       = "ValidationFailed"
	ReasonDuplicateZoneName      = "DuplicateZoneName"
)

// Reasons for the Ready condition on record resources.
const (
	ReasonRecordPushed          = "RecordPushed"
	ReasonRecordPushFailed      = "RecordPushFailed"
	ReasonZoneReferenceNotFound = "ZoneReferenceNotFound"
	ReasonAwaitingZoneBinding   = "AwaitingZoneBinding"
)

// Reasons for the Ready condition on DNSInstance.
const (
	ReasonEndpointResolved   = "EndpointResolved"
	ReasonEndpointUnresolved = "EndpointUnresolved"
	ReasonCredentialsMissing = "CredentialsMissing"
)
