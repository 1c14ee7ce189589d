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
	// IndexFieldInstanceByClusterRef is used to resolve a zone's
	// clusterRef into member DNSInstance objects.
	IndexFieldInstanceByClusterRef = "spec.clusterRef"
)

// RegisterInstanceByClusterRef registers the index for listing DNSInstance
// objects by spec.clusterRef.
func RegisterInstanceByClusterRef(mgr manager.Manager) error {
	if err := mgr.GetFieldIndexer().IndexField(
		context.Background(),
		&v1alpha1.DNSInstance{},
		IndexFieldInstanceByClusterRef,
		func(obj client.Object) []string {
			inst, ok := obj.(*v1alpha1.DNSInstance)
			if !ok {
				return nil
			}
			if inst.Spec.ClusterRef == "" {
				return nil
			}
			return []string{inst.Spec.ClusterRef}
		},
	); err != nil {
		return fmt.Errorf("index DNSInstance by spec.clusterRef: %w", err)
	}
	return nil
}
