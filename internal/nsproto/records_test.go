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
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

func int32Ptr(v int32) *int32 { return &v }

func TestBuildRRSet(t *testing.T) {
	tests := []struct {
		name       string
		rec        v1alpha1.RecordObject
		defaultTTL int32
		wantType   string
		wantTTL    int32
		wantRData  string
	}{
		{
			name: "a record",
			rec: &v1alpha1.ARecord{
				ObjectMeta: metav1.ObjectMeta{Name: "www"},
				Spec:       v1alpha1.ARecordSpec{Name: "www", IPv4Address: "192.0.2.10"},
			},
			defaultTTL: 600,
			wantType:   "A",
			wantTTL:    600,
			wantRData:  "192.0.2.10",
		},
		{
			name: "aaaa record with ttl override",
			rec: &v1alpha1.AAAARecord{
				Spec: v1alpha1.AAAARecordSpec{Name: "www", IPv6Address: "2001:db8::1", TTL: int32Ptr(120)},
			},
			defaultTTL: 600,
			wantType:   "AAAA",
			wantTTL:    120,
			wantRData:  "2001:db8::1",
		},
		{
			name: "cname record falls back to builtin ttl",
			rec: &v1alpha1.CNAMERecord{
				Spec: v1alpha1.CNAMERecordSpec{Name: "alias", Target: "www.example.com."},
			},
			wantType:  "CNAME",
			wantTTL:   DefaultRecordTTL,
			wantRData: "www.example.com.",
		},
		{
			name: "mx record",
			rec: &v1alpha1.MXRecord{
				Spec: v1alpha1.MXRecordSpec{Name: "@", Priority: 10, MailServer: "mail.example.com."},
			},
			defaultTTL: 300,
			wantType:   "MX",
			wantTTL:    300,
			wantRData:  "10 mail.example.com.",
		},
		{
			name: "txt record quotes strings",
			rec: &v1alpha1.TXTRecord{
				Spec: v1alpha1.TXTRecordSpec{Name: "@", Text: []string{"v=spf1 -all", "second"}},
			},
			defaultTTL: 300,
			wantType:   "TXT",
			wantTTL:    300,
			wantRData:  `"v=spf1 -all" "second"`,
		},
		{
			name: "ns record",
			rec: &v1alpha1.NSRecord{
				Spec: v1alpha1.NSRecordSpec{Name: "sub", Nameserver: "ns1.example.com."},
			},
			defaultTTL: 300,
			wantType:   "NS",
			wantTTL:    300,
			wantRData:  "ns1.example.com.",
		},
		{
			name: "srv record",
			rec: &v1alpha1.SRVRecord{
				Spec: v1alpha1.SRVRecordSpec{
					Name: "_sip._tcp", Priority: 10, Weight: 5, Port: 5060, Target: "sip.example.com.",
				},
			},
			defaultTTL: 300,
			wantType:   "SRV",
			wantTTL:    300,
			wantRData:  "10 5 5060 sip.example.com.",
		},
		{
			name: "caa record",
			rec: &v1alpha1.CAARecord{
				Spec: v1alpha1.CAARecordSpec{Name: "@", Flags: 0, Tag: "issue", Value: "letsencrypt.org"},
			},
			defaultTTL: 300,
			wantType:   "CAA",
			wantTTL:    300,
			wantRData:  `0 issue "letsencrypt.org"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildRRSet(tt.rec, tt.defaultTTL)
			if err != nil {
				t.Fatalf("BuildRRSet: %v", err)
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if got.TTL != tt.wantTTL {
				t.Errorf("TTL = %d, want %d", got.TTL, tt.wantTTL)
			}
			if len(got.RData) != 1 || got.RData[0] != tt.wantRData {
				t.Errorf("RData = %q, want [%q]", got.RData, tt.wantRData)
			}
		})
	}
}

func TestBuildRRSetOwnerName(t *testing.T) {
	rec := &v1alpha1.ARecord{
		Spec: v1alpha1.ARecordSpec{Name: "www", IPv4Address: "192.0.2.1"},
	}
	rr, err := BuildRRSet(rec, 300)
	if err != nil {
		t.Fatalf("BuildRRSet: %v", err)
	}
	if rr.OwnerName != "www" {
		t.Errorf("OwnerName = %q, want %q", rr.OwnerName, "www")
	}
}
