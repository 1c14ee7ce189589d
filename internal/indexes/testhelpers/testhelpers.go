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

// Package testhelpers provides utilities for registering indexes with fake clients in tests.
package testhelpers

import (
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/indexes"
)

// WithZoneByZoneNameIndex registers the IndexFieldZoneByZoneName index
// on a fake.ClientBuilder. This is useful for tests that need to use the index.
func WithZoneByZoneNameIndex(b *fake.ClientBuilder) *fake.ClientBuilder {
	return b.WithIndex(&v1alpha1.DNSZone{}, indexes.IndexFieldZoneByZoneName, func(obj client.Object) []string {
		zone, ok := obj.(*v1alpha1.DNSZone)
		if !ok {
			return nil
		}
		if zone.Spec.ZoneName == "" {
			return nil
		}
		return []string{zone.Spec.ZoneName}
	})
}

// WithZoneByClusterRefIndex registers the IndexFieldZoneByClusterRef index
// on a fake.ClientBuilder. This is useful for tests that need to use the index.
func WithZoneByClusterRefIndex(b *fake.ClientBuilder) *fake.ClientBuilder {
	return b.WithIndex(&v1alpha1.DNSZone{}, indexes.IndexFieldZoneByClusterRef, func(obj client.Object) []string {
		zone, ok := obj.(*v1alpha1.DNSZone)
		if !ok {
			return nil
		}
		if zone.Spec.ClusterRef == "" {
			return nil
		}
		return []string{zone.Spec.ClusterRef}
	})
}

// WithInstanceByClusterRefIndex registers the IndexFieldInstanceByClusterRef index
// on a fake.ClientBuilder. This is useful for tests that need to use the index.
func WithInstanceByClusterRefIndex(b *fake.ClientBuilder) *fake.ClientBuilder {
	return b.WithIndex(&v1alpha1.DNSInstance{}, indexes.IndexFieldInstanceByClusterRef, func(obj client.Object) []string {
		inst, ok := obj.(*v1alpha1.DNSInstance)
		if !ok {
			return nil
		}
		if inst.Spec.ClusterRef == "" {
			return nil
		}
		return []string{inst.Spec.ClusterRef}
	})
}

// WithRecordByZoneIndexes registers the IndexFieldRecordByZone index for
// every record kind on a fake.ClientBuilder.
func WithRecordByZoneIndexes(b *fake.ClientBuilder) *fake.ClientBuilder {
	for _, obj := range []client.Object{
		&v1alpha1.ARecord{},
		&v1alpha1.AAAARecord{},
		&v1alpha1.CNAMERecord{},
		&v1alpha1.MXRecord{},
		&v1alpha1.TXTRecord{},
		&v1alpha1.NSRecord{},
		&v1alpha1.SRVRecord{},
		&v1alpha1.CAARecord{},
	} {
		b = b.WithIndex(obj, indexes.IndexFieldRecordByZone, indexes.RecordByZoneExtractor)
	}
	return b
}
