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

type InstanceRole string

const (
	// RolePrimary instances are write-authoritative for their zones.
	RolePrimary InstanceRole = "primary"
	// RoleSecondary instances replicate zones from primaries via transfer.
	RoleSecondary InstanceRole = "secondary"
)

type TransportKind string

const (
	// TransportKeyed is the shared-key command channel (rndc style).
	TransportKeyed TransportKind = "rndc"
	// TransportHTTP is the bearer-authenticated HTTP control API.
	TransportHTTP TransportKind = "http"
)

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=di
// +kubebuilder:printcolumn:name="Role",type=string,JSONPath=".spec.role"
// +kubebuilder:printcolumn:name="Cluster",type=string,JSONPath=".spec.clusterRef"
// +kubebuilder:printcolumn:name="Endpoint",type=string,JSONPath=".spec.endpoint.host"
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=".status.conditions[?(@.type=='Ready')].status"
type DNSInstance struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec DNSInstanceSpec `json:"spec"`
	// +patchStrategy=merge
	Status *DNSInstanceStatus `json:"status,omitempty" patchStrategy:"merge"`
}

// +k8s:deepcopy-gen=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:object:root=true
type DNSInstanceList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata"`
	Items           []DNSInstance `json:"items"`
}

// +k8s:deepcopy-gen=true
type DNSInstanceSpec struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:Enum=primary;secondary
	Role InstanceRole `json:"role"`

	// Cluster this instance is a member of, if any.
	// +optional
	ClusterRef string `json:"clusterRef,omitempty"`

	// +kubebuilder:validation:Required
	Endpoint InstanceEndpoint `json:"endpoint"`

	// Addresses of primary servers this secondary transfers zones from.
	// Ignored for primaries.
	// +optional
	PrimaryServers []string `json:"primaryServers,omitempty"`

	// Secret holding the control-channel key material for this instance.
	// +optional
	CredentialSecretRef *CredentialSecretRef `json:"credentialSecretRef,omitempty"`
}

// +k8s:deepcopy-gen=true
type InstanceEndpoint struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Host string `json:"host"`

	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=65535
	Port int32 `json:"port"`

	// +kubebuilder:validation:Enum=rndc;http
	// +kubebuilder:default=rndc
	// +optional
	Transport TransportKind `json:"transport,omitempty"`
}

// +k8s:deepcopy-gen=true
type CredentialSecretRef struct {
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	// Key within the secret holding the key name. Defaults to "key-name".
	// +optional
	KeyNameKey string `json:"keyNameKey,omitempty"`

	// Key within the secret holding the HMAC algorithm. Defaults to
	// "algorithm".
	// +optional
	AlgorithmKey string `json:"algorithmKey,omitempty"`

	// Key within the secret holding the base64 secret. Defaults to "secret".
	// +optional
	SecretKey string `json:"secretKey,omitempty"`
}

// +k8s:deepcopy-gen=true
type DNSInstanceStatus struct {
	// +patchMergeKey=type
	// +patchStrategy=merge
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`

	// Address the instance is reachable at, as published by whatever
	// manages the deployment. Preferred over spec.endpoint.host when set.
	// +optional
	ServiceAddress string `json:"serviceAddress,omitempty"`
}

// Address returns the instance's live address: the published service
// address when available, otherwise the declared endpoint host.
func (in *DNSInstance) Address() string {
	if in.Status != nil && in.Status.ServiceAddress != "" {
		return in.Status.ServiceAddress
	}
	return in.Spec.Endpoint.Host
}

// IsPrimary reports whether the instance is write-authoritative.
func (in *DNSInstance) IsPrimary() bool {
	return in.Spec.Role == RolePrimary
}
