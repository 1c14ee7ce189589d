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

package indexes

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

const (
	// IndexFieldZoneByZoneName is used to find DNSZone objects claiming a
	// specific DNS domain, which is how duplicate zone names are detected.
	//
	// NOTE: this is not a JSONPath; it must match the field name used with:
	// - mgr.GetFieldIndexer().IndexField(...)
	// - client.MatchingFields{...}
	// - fake.ClientBuilder.WithIndex(...)
	IndexFieldZoneByZoneName = "spec.zoneName"

	// IndexFieldZoneByClusterRef is used to list DNSZone objects targeting
	// a cluster, so instance changes requeue only affected zones.
	IndexFieldZoneByClusterRef = "spec.clusterRef"
)

// RegisterZoneByZoneName registers the index for listing DNSZone objects
// by spec.zoneName.
func RegisterZoneByZoneName(mgr manager.Manager) error {
	if err := mgr.GetFieldIndexer().IndexField(
		context.Background(),
		&v1alpha1.DNSZone{},
		IndexFieldZoneByZoneName,
		func(obj client.Object) []string {
			zone, ok := obj.(*v1alpha1.DNSZone)
			if !ok {
				return nil
			}
			if zone.Spec.ZoneName == "" {
				return nil
			}
			return []string{zone.Spec.ZoneName}
		},
	); err != nil {
		return fmt.Errorf("index DNSZone by spec.zoneName: %w", err)
	}
	return nil
}

// RegisterZoneByClusterRef registers the index for listing DNSZone objects
// by spec.clusterRef.
func RegisterZoneByClusterRef(mgr manager.Manager) error {
	if err := mgr.GetFieldIndexer().IndexField(
		context.Background(),
		&v1alpha1.DNSZone{},
		IndexFieldZoneByClusterRef,
		func(obj client.Object) []string {
			zone, ok := obj.(*v1alpha1.DNSZone)
			if !ok {
				return nil
			}
			if zone.Spec.ClusterRef == "" {
				return nil
			}
			return []string{zone.Spec.ClusterRef}
		},
	); err != nil {
		return fmt.Errorf("index DNSZone by spec.clusterRef: %w", err)
	}
	return nil
}
