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

package zonesync

import (
	"slices"
	"strings"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
)

// buildPrimaryZone assembles the wire payload for a primary instance.
// secondaryIPs become both the transfer allow-list and the notify set.
func buildPrimaryZone(zone *v1alpha1.DNSZone, secondaryIPs []string) nsproto.PrimaryZone {
	pz := nsproto.PrimaryZone{
		Name: zone.Spec.ZoneName,
		SOA: nsproto.SOAParameters{
			PrimaryNS:    zone.Spec.SOA.PrimaryNS,
			AdminContact: soaMailbox(zone.Spec.SOA.AdminContact),
			Serial:       uint32(zone.Spec.SOA.Serial),
			Refresh:      zone.Spec.SOA.Refresh,
			Retry:        zone.Spec.SOA.Retry,
			Expire:       zone.Spec.SOA.Expire,
			NegativeTTL:  zone.Spec.SOA.NegativeTTL,
		},
		AllowTransfer: secondaryIPs,
		AlsoNotify:    secondaryIPs,
		Glue:          zone.Spec.NameServerIPs,
	}
	if zone.Spec.TTL != nil {
		pz.DefaultTTL = *zone.Spec.TTL
	}
	return pz
}

// soaMailbox converts user@host contacts into SOA mailbox form
// (user.host.). Contacts already in mailbox form pass through.
func soaMailbox(contact string) string {
	if at := strings.IndexByte(contact, '@'); at >= 0 {
		local := strings.ReplaceAll(contact[:at], ".", "\\.")
		contact = local + "." + contact[at+1:]
	}
	if !strings.HasSuffix(contact, ".") {
		contact += "."
	}
	return contact
}

// secondaryAddresses returns the sorted, deduplicated address set of
// secondary instances, the zone's transfer topology snapshot.
func secondaryAddresses(secondaries []v1alpha1.DNSInstance) []string {
	seen := map[string]struct{}{}
	var addrs []string
	for i := range secondaries {
		addr := secondaries[i].Address()
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}

// primaryAddresses returns the sorted addresses of primary instances,
// used as transfer sources for secondaries.
func primaryAddresses(primaries []v1alpha1.DNSInstance) []string {
	seen := map[string]struct{}{}
	var addrs []string
	for i := range primaries {
		addr := primaries[i].Address()
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}

// topologyDrifted reports whether the live secondary set differs from the
// snapshot last applied to primaries.
func topologyDrifted(snapshot, desired []string) bool {
	return !slices.Equal(snapshot, desired)
}
