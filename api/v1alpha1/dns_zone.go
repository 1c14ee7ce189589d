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

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=dz
// +kubebuilder:printcolumn:name="Zone",type=string,JSONPath=".spec.zoneName"
// +kubebuilder:printcolumn:name="Cluster",type=string,JSONPath=".spec.clusterRef"
// +kubebuilder:printcolumn:name="Records",type=integer,JSONPath=".status.recordCount"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type DNSZone struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec DNSZoneSpec `json:"spec"`
	// +patchStrategy=merge
	Status *DNSZoneStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type DNSZoneList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []DNSZone `json:"items"`
}

// +k8s:deepcopy-gen=true
type DNSZoneSpec struct {
	// DNS domain this zone is authoritative for, without trailing dot.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	// +kubebuilder:validation:Pattern=`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`
	ZoneName string `json:"zoneName"`

	// Name of the cluster whose instances serve this zone. Instances with
	// spec.clusterRef equal to this value are targeted in addition to any
	// instancesFrom selector matches.
	// +optional
	ClusterRef string `json:"clusterRef,omitempty"`

	// Label selectors over DNSInstance resources in the zone's namespace.
	// Matches from all selectors are unioned with clusterRef matches.
	// +optional
	InstancesFrom []SelectorSource `json:"instancesFrom,omitempty"`

	// Label selectors over record resources in the zone's namespace.
	// Records matching any selector are bound to this zone.
	// +optional
	RecordsFrom []SelectorSource `json:"recordsFrom,omitempty"`

	// +kubebuilder:validation:Required
	SOA SOARecord `json:"soa"`

	// Default TTL in seconds for records that don't carry their own.
	// +optional
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=2147483647
	TTL *int32 `json:"ttl,omitempty"`

	// Glue records: nameserver FQDNs mapped to their addresses. Needed when
	// a delegated zone's nameserver lives inside the zone itself.
	// +optional
	NameServerIPs map[string]string `json:"nameServerIPs,omitempty"`
}

// +k8s:deepcopy-gen=true
type SelectorSource struct {
	// +kubebuilder:validation:Required
	Selector metav1.LabelSelector `json:"selector"`
}

// +k8s:deepcopy-gen=true
type SOARecord struct {
	// Primary nameserver FQDN, trailing dot included.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	PrimaryNS string `json:"primaryNS"`

	// Zone admin mailbox in SOA notation (user@host becomes user.host.).
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	AdminContact string `json:"adminContact"`

	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=4294967295
	Serial int64 `json:"serial"`

	// +kubebuilder:validation:Minimum=1
	Refresh int32 `json:"refresh"`

	// +kubebuilder:validation:Minimum=1
	Retry int32 `json:"retry"`

	// +kubebuilder:validation:Minimum=1
	Expire int32 `json:"expire"`

	// +kubebuilder:validation:Minimum=0
	NegativeTTL int32 `json:"negativeTTL"`
}

// +k8s:deepcopy-gen=true
type DNSZoneStatus struct {
	// +patchMergeKey=type
	// +patchStrategy=merge
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`

	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Per-instance synchronization state. One entry per instance ever
	// targeted; entries leave the list only after passing through Unclaimed.
	// +optional
	Instances []InstanceSyncStatus `json:"instances,omitempty"`

	// Last secondary address set applied to primary transfer/notify
	// configuration. Compared against the freshly resolved set to detect
	// topology drift.
	// +optional
	SecondaryIPs []string `json:"secondaryIPs,omitempty"`

	// Records confirmed pushed to this zone's instances.
	// +optional
	Records []BoundRecord `json:"records,omitempty"`

	// +optional
	RecordCount *int32 `json:"recordCount,omitempty"`
}

type InstanceSyncState string

const (
	// InstanceSyncClaimed marks an instance the zone intends to configure.
	InstanceSyncClaimed InstanceSyncState = "Claimed"
	// InstanceSyncConfigured marks an instance that acknowledged the zone.
	InstanceSyncConfigured InstanceSyncState = "Configured"
	// InstanceSyncFailed marks an instance whose last dispatch errored.
	// Failed entries stay eligible for retry on the next pass.
	InstanceSyncFailed InstanceSyncState = "Failed"
	// InstanceSyncUnclaimed marks an instance that left the target set and
	// is awaiting zone removal.
	InstanceSyncUnclaimed InstanceSyncState = "Unclaimed"
)

// +k8s:deepcopy-gen=true
type InstanceSyncStatus struct {
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// +kubebuilder:validation:Required
	Namespace string `json:"namespace"`

	// +optional
	Role InstanceRole `json:"role,omitempty"`

	// +kubebuilder:validation:Enum=Claimed;Configured;Failed;Unclaimed
	State InstanceSyncState `json:"state"`

	// +optional
	LastReconciledAt *metav1.Time `json:"lastReconciledAt,omitempty"`

	// +optional
	Message string `json:"message,omitempty"`
}

// +k8s:deepcopy-gen=true
type BoundRecord struct {
	// +kubebuilder:validation:Required
	Kind RecordKind `json:"kind"`

	// +kubebuilder:validation:Required
	Name string `json:"name"`
}

// EnsureStatus returns the zone status, allocating it when unset.
func (z *DNSZone) EnsureStatus() *DNSZoneStatus {
	if z.Status == nil {
		z.Status = &DNSZoneStatus{}
	}
	return z.Status
}

// FindInstanceStatus returns the sync entry for the given instance, or nil.
func (s *DNSZoneStatus) FindInstanceStatus(namespace, name string) *InstanceSyncStatus {
	for i := range s.Instances {
		if s.Instances[i].Namespace == namespace && s.Instances[i].Name == name {
			return &s.Instances[i]
		}
	}
	return nil
}

// HasBoundRecord reports whether the inventory already lists kind/name.
func (s *DNSZoneStatus) HasBoundRecord(kind RecordKind, name string) bool {
	for _, r := range s.Records {
		if r.Kind == kind && r.Name == name {
			return true
		}
	}
	return false
}
