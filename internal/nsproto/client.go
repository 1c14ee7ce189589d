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

package nsproto

import (
	"context"
)

// SOAParameters is the zone's start-of-authority content as sent on the
// wire. AdminContact is already in mailbox form (user.host.).
type SOAParameters struct {
	PrimaryNS    string `json:"primaryNS"`
	AdminContact string `json:"adminContact"`
	Serial       uint32 `json:"serial"`
	Refresh      int32  `json:"refresh"`
	Retry        int32  `json:"retry"`
	Expire       int32  `json:"expire"`
	NegativeTTL  int32  `json:"negativeTTL"`
}

// PrimaryZone is the payload for creating or reshaping a zone on a
// write-authoritative server.
type PrimaryZone struct {
	Name       string        `json:"name"`
	SOA        SOAParameters `json:"soa"`
	DefaultTTL int32         `json:"ttl,omitempty"`

	// Secondary addresses allowed to transfer and notified on change.
	AllowTransfer []string `json:"allowTransfer,omitempty"`
	AlsoNotify    []string `json:"alsoNotify,omitempty"`

	// Glue maps in-zone nameserver FQDNs to their addresses.
	Glue map[string]string `json:"glue,omitempty"`
}

// SecondaryZone is the payload for creating a replicated zone on a
// secondary server.
type SecondaryZone struct {
	Name      string   `json:"name"`
	Primaries []string `json:"primaries"`
}

// RRSet is one record set to push into a zone. RData strings are in
// presentation format, one per record.
type RRSet struct {
	OwnerName string   `json:"ownerName"`
	Type      string   `json:"type"`
	TTL       int32    `json:"ttl"`
	RData     []string `json:"rdata"`
}

// ZoneState is a server's view of one zone.
type ZoneState struct {
	Name   string `json:"name"`
	Serial uint32 `json:"serial"`
	Loaded bool   `json:"loaded"`
}

// ServerState is the liveness report of one name-server instance.
type ServerState struct {
	Version   string `json:"version"`
	Up        bool   `json:"up"`
	ZoneCount int    `json:"zoneCount"`
}

// Client talks to a single name-server instance. Implementations classify
// every returned error (see Class); callers fold AlreadySatisfied into
// success and retry only Transient.
type Client interface {
	AddPrimaryZone(ctx context.Context, zone PrimaryZone) error
	// UpdatePrimaryZone reshapes transfer/notify topology of an existing
	// zone in place. Endpoints without in-place reshaping return a
	// NotSupported error and callers fall back to delete-and-recreate.
	UpdatePrimaryZone(ctx context.Context, zone PrimaryZone) error
	AddSecondaryZone(ctx context.Context, zone SecondaryZone) error
	DeleteZone(ctx context.Context, zoneName string) error

	PushRecord(ctx context.Context, zoneName string, rr RRSet) error
	RemoveRecord(ctx context.Context, zoneName string, rr RRSet) error

	// NotifyZone asks the server to send NOTIFY to its secondaries.
	NotifyZone(ctx context.Context, zoneName string) error
	// ReloadZone applies configuration changes to a loaded zone.
	ReloadZone(ctx context.Context, zoneName string) error
	// RetransferZone forces a secondary to transfer the zone now instead
	// of waiting for the refresh timer.
	RetransferZone(ctx context.Context, zoneName string) error

	// FreezeZone suspends dynamic updates on a zone, ThawZone resumes
	// them. Used to quiesce a zone around destructive reshaping.
	FreezeZone(ctx context.Context, zoneName string) error
	ThawZone(ctx context.Context, zoneName string) error

	ZoneStatus(ctx context.Context, zoneName string) (ZoneState, error)
	ServerStatus(ctx context.Context) (ServerState, error)
}
