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
	"fmt"
	"strconv"
	"strings"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

// DefaultRecordTTL applies when neither the record nor its zone carries one.
const DefaultRecordTTL = 3600

// BuildRRSet converts a record resource into its wire record set.
// defaultTTL is the zone default, zero when the zone has none.
func BuildRRSet(rec v1alpha1.RecordObject, defaultTTL int32) (RRSet, error) {
	ttl := defaultTTL
	if override := rec.GetTTLOverride(); override != nil {
		ttl = *override
	}
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}

	rr := RRSet{
		OwnerName: rec.GetOwnerName(),
		TTL:       ttl,
	}

	switch r := rec.(type) {
	case *v1alpha1.ARecord:
		rr.Type = "A"
		rr.RData = []string{r.Spec.IPv4Address}
	case *v1alpha1.AAAARecord:
		rr.Type = "AAAA"
		rr.RData = []string{r.Spec.IPv6Address}
	case *v1alpha1.CNAMERecord:
		rr.Type = "CNAME"
		rr.RData = []string{r.Spec.Target}
	case *v1alpha1.MXRecord:
		rr.Type = "MX"
		rr.RData = []string{fmt.Sprintf("%d %s", r.Spec.Priority, r.Spec.MailServer)}
	case *v1alpha1.TXTRecord:
		rr.Type = "TXT"
		parts := make([]string, len(r.Spec.Text))
		for i, t := range r.Spec.Text {
			parts[i] = strconv.Quote(t)
		}
		rr.RData = []string{strings.Join(parts, " ")}
	case *v1alpha1.NSRecord:
		rr.Type = "NS"
		rr.RData = []string{r.Spec.Nameserver}
	case *v1alpha1.SRVRecord:
		rr.Type = "SRV"
		rr.RData = []string{fmt.Sprintf("%d %d %d %s",
			r.Spec.Priority, r.Spec.Weight, r.Spec.Port, r.Spec.Target)}
	case *v1alpha1.CAARecord:
		rr.Type = "CAA"
		rr.RData = []string{fmt.Sprintf("%d %s %s",
			r.Spec.Flags, r.Spec.Tag, strconv.Quote(r.Spec.Value))}
	default:
		return RRSet{}, fmt.Errorf("unsupported record kind %q", rec.GetRecordKind())
	}

	return rr, nil
}
