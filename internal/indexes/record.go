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
	// IndexFieldRecordByZone is used to list record objects bound to a
	// specific DNSZone. Values are "namespace/name" of the zone, built
	// with ZoneKey.
	IndexFieldRecordByZone = "status.zoneRef"
)

// ZoneKey is the index value for records bound to the given zone.
func ZoneKey(namespace, name string) string {
	return namespace + "/" + name
}

// RecordByZoneExtractor returns the index values for one record object.
// Exported so fake clients in tests can register the same extractor.
func RecordByZoneExtractor(obj client.Object) []string {
	rec, ok := obj.(v1alpha1.RecordObject)
	if !ok {
		return nil
	}
	st := rec.GetRecordStatus()
	if st == nil || st.ZoneRef == nil {
		return nil
	}
	return []string{ZoneKey(st.ZoneRef.Namespace, st.ZoneRef.Name)}
}

// RegisterRecordsByZone registers the status.zoneRef index for every
// record kind.
func RegisterRecordsByZone(mgr manager.Manager) error {
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
		if err := mgr.GetFieldIndexer().IndexField(
			context.Background(),
			obj,
			IndexFieldRecordByZone,
			RecordByZoneExtractor,
		); err != nil {
			return fmt.Errorf("index %T by status.zoneRef: %w", obj, err)
		}
	}
	return nil
}
