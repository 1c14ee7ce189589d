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

package targets

import (
	"context"
	"fmt"
	"sort"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/indexes"
)

// Resolver turns a zone's clusterRef and selector sources into the concrete
// set of instances that must serve the zone.
type Resolver struct {
	cl client.Client
}

func NewResolver(cl client.Client) *Resolver {
	return &Resolver{cl: cl}
}

// Instances resolves the zone's target set: instances matching
// spec.clusterRef unioned with matches of every instancesFrom selector.
// Only instances in the zone's namespace are considered. The result is
// deduplicated and sorted by namespace/name so reconcile passes are
// deterministic.
func (r *Resolver) Instances(ctx context.Context, zone *v1alpha1.DNSZone) ([]v1alpha1.DNSInstance, error) {
	found := map[string]v1alpha1.DNSInstance{}

	if zone.Spec.ClusterRef != "" {
		var list v1alpha1.DNSInstanceList
		if err := r.cl.List(ctx, &list,
			client.InNamespace(zone.Namespace),
			client.MatchingFields{indexes.IndexFieldInstanceByClusterRef: zone.Spec.ClusterRef},
		); err != nil {
			return nil, fmt.Errorf("listing instances by clusterRef %q: %w", zone.Spec.ClusterRef, err)
		}
		for _, inst := range list.Items {
			found[instanceKey(&inst)] = inst
		}
	}

	for i, src := range zone.Spec.InstancesFrom {
		sel, err := metav1.LabelSelectorAsSelector(&src.Selector)
		if err != nil {
			return nil, fmt.Errorf("instancesFrom[%d]: invalid selector: %w", i, err)
		}
		var list v1alpha1.DNSInstanceList
		if err := r.cl.List(ctx, &list,
			client.InNamespace(zone.Namespace),
			client.MatchingLabelsSelector{Selector: sel},
		); err != nil {
			return nil, fmt.Errorf("listing instances for instancesFrom[%d]: %w", i, err)
		}
		for _, inst := range list.Items {
			found[instanceKey(&inst)] = inst
		}
	}

	result := make([]v1alpha1.DNSInstance, 0, len(found))
	for _, inst := range found {
		result = append(result, inst)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Namespace != result[j].Namespace {
			return result[i].Namespace < result[j].Namespace
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func instanceKey(inst *v1alpha1.DNSInstance) string {
	return inst.Namespace + "/" + inst.Name
}

// Split partitions resolved instances by role.
func Split(instances []v1alpha1.DNSInstance) (primaries, secondaries []v1alpha1.DNSInstance) {
	for _, inst := range instances {
		if inst.IsPrimary() {
			primaries = append(primaries, inst)
		} else {
			secondaries = append(secondaries, inst)
		}
	}
	return primaries, secondaries
}

// SelectsLabels reports whether any of the zone's recordsFrom selectors
// matches the given label set. A zone with no recordsFrom selects nothing.
func SelectsLabels(zone *v1alpha1.DNSZone, lbls map[string]string) (bool, error) {
	set := labels.Set(lbls)
	for i, src := range zone.Spec.RecordsFrom {
		sel, err := metav1.LabelSelectorAsSelector(&src.Selector)
		if err != nil {
			return false, fmt.Errorf("recordsFrom[%d]: invalid selector: %w", i, err)
		}
		if sel.Matches(set) {
			return true, nil
		}
	}
	return false, nil
}
