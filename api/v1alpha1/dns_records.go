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
	"k8s.io/apimachinery/pkg/runtime"
)

// RecordKind names one of the supported record resource kinds. The set is
// closed: reconcilers dispatch over it with a capability table, not
// reflection.
type RecordKind string

const (
	RecordKindA     RecordKind = "ARecord"
	RecordKindAAAA  RecordKind = "AAAARecord"
	RecordKindCNAME RecordKind = "CNAMERecord"
	RecordKindMX    RecordKind = "MXRecord"
	RecordKindTXT   RecordKind = "TXTRecord"
	RecordKindNS    RecordKind = "NSRecord"
	RecordKindSRV   RecordKind = "SRVRecord"
	RecordKindCAA   RecordKind = "CAARecord"
)

// RecordKinds returns all supported record kinds in stable order.
func RecordKinds() []RecordKind {
	return []RecordKind{
		RecordKindA, RecordKindAAAA, RecordKindCNAME, RecordKindMX,
		RecordKindTXT, RecordKindNS, RecordKindSRV, RecordKindCAA,
	}
}

// RecordPrototype returns a zero value of the kind's resource type, or
// nil for an unknown kind.
func RecordPrototype(kind RecordKind) RecordObject {
	switch kind {
	case RecordKindA:
		return &ARecord{}
	case RecordKindAAAA:
		return &AAAARecord{}
	case RecordKindCNAME:
		return &CNAMERecord{}
	case RecordKindMX:
		return &MXRecord{}
	case RecordKindTXT:
		return &TXTRecord{}
	case RecordKindNS:
		return &NSRecord{}
	case RecordKindSRV:
		return &SRVRecord{}
	case RecordKindCAA:
		return &CAARecord{}
	}
	return nil
}

// RecordListPrototype returns a zero value of the kind's list type, or
// nil for an unknown kind.
func RecordListPrototype(kind RecordKind) runtime.Object {
	switch kind {
	case RecordKindA:
		return &ARecordList{}
	case RecordKindAAAA:
		return &AAAARecordList{}
	case RecordKindCNAME:
		return &CNAMERecordList{}
	case RecordKindMX:
		return &MXRecordList{}
	case RecordKindTXT:
		return &TXTRecordList{}
	case RecordKindNS:
		return &NSRecordList{}
	case RecordKindSRV:
		return &SRVRecordList{}
	case RecordKindCAA:
		return &CAARecordList{}
	}
	return nil
}

// RecordObject is the common surface of all record resources. It lets the
// binder and the record reconciler handle every kind with one
// implementation.
type RecordObject interface {
	metav1.Object
	runtime.Object

	GetRecordKind() RecordKind
	// GetOwnerName returns the record's name within the zone ("@" for the
	// apex).
	GetOwnerName() string
	GetTTLOverride() *int32
	// GetRecordStatus returns the status subtree, nil when never written.
	GetRecordStatus() *RecordStatus
	// EnsureRecordStatus returns the status subtree, allocating it when
	// unset.
	EnsureRecordStatus() *RecordStatus
}

// +k8s:deepcopy-gen=true
type ZoneReference struct {
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// +kubebuilder:validation:Required
	Namespace string `json:"namespace"`

	// DNS domain of the referenced zone.
	// +kubebuilder:validation:Required
	ZoneName string `json:"zoneName"`
}

// +k8s:deepcopy-gen=true
type RecordStatus struct {
	// +patchMergeKey=type
	// +patchStrategy=merge
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`

	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Zone this record is bound to. Unset while no zone selects the
	// record; an unbound record is never pushed anywhere.
	// +optional
	ZoneRef *ZoneReference `json:"zoneRef,omitempty"`
}

// ============================================================================
// ARecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Address",type=string,JSONPath=".spec.ipv4Address"
// +kubebuilder:printcolumn:name="Zone",type=string,JSONPath=".status.zoneRef.zoneName"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type ARecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec ARecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type ARecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []ARecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type ARecordSpec struct {
	// Record name within the zone, "@" for the apex.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Pattern=`^((25[0-5]|(2[0-4]|1\d|[1-9]|)\d)\.){3}(25[0-5]|(2[0-4]|1\d|[1-9]|)\d)$`
	IPv4Address string `json:"ipv4Address"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *ARecord) GetRecordKind() RecordKind      { return RecordKindA }
func (r *ARecord) GetOwnerName() string           { return r.Spec.Name }
func (r *ARecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *ARecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *ARecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}

// ============================================================================
// AAAARecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Address",type=string,JSONPath=".spec.ipv6Address"
// +kubebuilder:printcolumn:name="Zone",type=string,JSONPath=".status.zoneRef.zoneName"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type AAAARecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec AAAARecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type AAAARecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []AAAARecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type AAAARecordSpec struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=2
	IPv6Address string `json:"ipv6Address"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *AAAARecord) GetRecordKind() RecordKind      { return RecordKindAAAA }
func (r *AAAARecord) GetOwnerName() string           { return r.Spec.Name }
func (r *AAAARecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *AAAARecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *AAAARecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}

// ============================================================================
// CNAMERecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Target",type=string,JSONPath=".spec.target"
// +kubebuilder:printcolumn:name="Zone",type=string,JSONPath=".status.zoneRef.zoneName"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type CNAMERecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec CNAMERecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type CNAMERecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []CNAMERecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type CNAMERecordSpec struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// Canonical name the alias points at, trailing dot for FQDNs.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Target string `json:"target"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *CNAMERecord) GetRecordKind() RecordKind      { return RecordKindCNAME }
func (r *CNAMERecord) GetOwnerName() string           { return r.Spec.Name }
func (r *CNAMERecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *CNAMERecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *CNAMERecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}

// ============================================================================
// MXRecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Priority",type=integer,JSONPath=".spec.priority"
// +kubebuilder:printcolumn:name="MailServer",type=string,JSONPath=".spec.mailServer"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type MXRecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec MXRecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type MXRecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []MXRecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type MXRecordSpec struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=65535
	Priority int32 `json:"priority"`

	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	MailServer string `json:"mailServer"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *MXRecord) GetRecordKind() RecordKind      { return RecordKindMX }
func (r *MXRecord) GetOwnerName() string           { return r.Spec.Name }
func (r *MXRecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *MXRecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *MXRecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}

// ============================================================================
// TXTRecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Zone",type=string,JSONPath=".status.zoneRef.zoneName"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type TXTRecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec TXTRecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type TXTRecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []TXTRecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type TXTRecordSpec struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// Text strings, each at most 255 octets; resolvers concatenate them.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinItems=1
	Text []string `json:"text"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *TXTRecord) GetRecordKind() RecordKind      { return RecordKindTXT }
func (r *TXTRecord) GetOwnerName() string           { return r.Spec.Name }
func (r *TXTRecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *TXTRecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *TXTRecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}

// ============================================================================
// NSRecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Nameserver",type=string,JSONPath=".spec.nameserver"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type NSRecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec NSRecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type NSRecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []NSRecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type NSRecordSpec struct {
	// Delegated name within the zone.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// Authoritative nameserver FQDN for the delegation.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Nameserver string `json:"nameserver"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *NSRecord) GetRecordKind() RecordKind      { return RecordKindNS }
func (r *NSRecord) GetOwnerName() string           { return r.Spec.Name }
func (r *NSRecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *NSRecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *NSRecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}

// ============================================================================
// SRVRecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Target",type=string,JSONPath=".spec.target"
// +kubebuilder:printcolumn:name="Port",type=integer,JSONPath=".spec.port"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type SRVRecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec SRVRecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type SRVRecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []SRVRecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type SRVRecordSpec struct {
	// Service name in "_service._proto" form, e.g. "_sip._tcp".
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=65535
	Priority int32 `json:"priority"`

	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=65535
	Weight int32 `json:"weight"`

	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=65535
	Port int32 `json:"port"`

	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Target string `json:"target"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *SRVRecord) GetRecordKind() RecordKind      { return RecordKindSRV }
func (r *SRVRecord) GetOwnerName() string           { return r.Spec.Name }
func (r *SRVRecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *SRVRecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *SRVRecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}

// ============================================================================
// CAARecord
// ============================================================================

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=".spec.name"
// +kubebuilder:printcolumn:name="Tag",type=string,JSONPath=".spec.tag"
// +kubebuilder:printcolumn:name="Value",type=string,JSONPath=".spec.value"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type CAARecord struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec CAARecordSpec `json:"spec"`
	// +patchStrategy=merge
	Status *RecordStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type CAARecordList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []CAARecord `json:"items"`
}

// +k8s:deepcopy-gen=true
type CAARecordSpec struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// Critical flag; 128 requires CAs to understand the tag.
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=255
	Flags int32 `json:"flags"`

	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Enum=issue;issuewild;iodef
	Tag string `json:"tag"`

	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Value string `json:"value"`

	// +optional
	// +kubebuilder:validation:Minimum=0
	TTL *int32 `json:"ttl,omitempty"`
}

func (r *CAARecord) GetRecordKind() RecordKind      { return RecordKindCAA }
func (r *CAARecord) GetOwnerName() string           { return r.Spec.Name }
func (r *CAARecord) GetTTLOverride() *int32         { return r.Spec.TTL }
func (r *CAARecord) GetRecordStatus() *RecordStatus { return r.Status }
func (r *CAARecord) EnsureRecordStatus() *RecordStatus {
	if r.Status == nil {
		r.Status = &RecordStatus{}
	}
	return r.Status
}
