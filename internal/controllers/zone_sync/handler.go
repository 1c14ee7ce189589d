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
	"context"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/indexes"
)

type Handler struct {
	cl  client.Client
	log logr.Logger
}

func NewHandler(cl client.Client, log logr.Logger) *Handler {
	return &Handler{
		cl:  cl,
		log: log,
	}
}

// HandleDNSInstance enqueues every zone whose target set may include the
// instance: zones sharing its clusterRef plus zones in its namespace with
// a matching instancesFrom selector. Zones already tracking the instance
// in status are enqueued too, so departures trigger cleanup.
func (h *Handler) HandleDNSInstance(ctx context.Context, obj client.Object) []reconcile.Request {
	log := h.log.WithName("HandleDNSInstance").WithValues("instance", client.ObjectKeyFromObject(obj))

	inst, ok := obj.(*v1alpha1.DNSInstance)
	if !ok {
		log.Error(nil, "Unexpected object type")
		return nil
	}

	seen := map[types.NamespacedName]struct{}{}

	if inst.Spec.ClusterRef != "" {
		var byRef v1alpha1.DNSZoneList
		if err := h.cl.List(ctx, &byRef,
			client.InNamespace(inst.Namespace),
			client.MatchingFields{indexes.IndexFieldZoneByClusterRef: inst.Spec.ClusterRef},
		); err != nil {
			log.Error(err, "Listing zones by clusterRef")
			return nil
		}
		for i := range byRef.Items {
			seen[client.ObjectKeyFromObject(&byRef.Items[i])] = struct{}{}
		}
	}

	var all v1alpha1.DNSZoneList
	if err := h.cl.List(ctx, &all, client.InNamespace(inst.Namespace)); err != nil {
		log.Error(err, "Listing zones in instance namespace")
		return nil
	}

	instLabels := labels.Set(inst.Labels)
	for i := range all.Items {
		zone := &all.Items[i]
		key := client.ObjectKeyFromObject(zone)
		if _, ok := seen[key]; ok {
			continue
		}

		if zone.Status != nil && zone.Status.FindInstanceStatus(inst.Namespace, inst.Name) != nil {
			seen[key] = struct{}{}
			continue
		}

		for _, src := range zone.Spec.InstancesFrom {
			sel, err := metav1.LabelSelectorAsSelector(&src.Selector)
			if err != nil {
				// the reconciler reports invalid selectors
				continue
			}
			if sel.Matches(instLabels) {
				seen[key] = struct{}{}
				break
			}
		}
	}

	requests := make([]reconcile.Request, 0, len(seen))
	for key := range seen {
		requests = append(requests, reconcile.Request{NamespacedName: key})
	}
	return requests
}
