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

package zonesync_test

import (
	"context"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	zonesync "github.com/zoneops-dev/zoneops/internal/controllers/zone_sync"
)

var _ = Describe("HandleDNSInstance", func() {
	var (
		ctx context.Context
		cl  client.Client
		h   *zonesync.Handler

		instance *v1alpha1.DNSInstance
	)

	BeforeEach(func() {
		ctx = context.Background()
		instance = createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	})

	JustBeforeEach(func() {
		h = zonesync.NewHandler(cl, logr.Discard())
	})

	When("a zone shares the instance's clusterRef", func() {
		BeforeEach(func() {
			cl = newFakeClient(createZone("by-ref", "ref.example.org"), instance)
		})

		It("enqueues the zone", func() {
			requests := h.HandleDNSInstance(ctx, instance)
			Expect(requests).To(ConsistOf(RequestFor(createZone("by-ref", "ref.example.org"))))
		})
	})

	When("a zone selects the instance by labels", func() {
		BeforeEach(func() {
			zone := createZone("by-selector", "sel.example.org")
			zone.Spec.ClusterRef = ""
			zone.Spec.InstancesFrom = []v1alpha1.SelectorSource{
				{Selector: metav1.LabelSelector{MatchLabels: map[string]string{"tier": "edge"}}},
			}
			instance.Spec.ClusterRef = ""
			instance.Labels = map[string]string{"tier": "edge"}
			cl = newFakeClient(zone, instance)
		})

		It("enqueues the zone", func() {
			requests := h.HandleDNSInstance(ctx, instance)
			Expect(requests).To(HaveLen(1))
			Expect(requests[0].Name).To(Equal("by-selector"))
		})
	})

	When("a zone tracks the instance in status only", func() {
		BeforeEach(func() {
			zone := createZone("departed", "old.example.org")
			zone.Spec.ClusterRef = "another-cluster"
			zone.Status = &v1alpha1.DNSZoneStatus{
				Instances: []v1alpha1.InstanceSyncStatus{
					{Name: "p1", Namespace: "dns", State: v1alpha1.InstanceSyncConfigured},
				},
			}
			cl = newFakeClient(zone, instance)
		})

		It("enqueues the zone so departure cleanup runs", func() {
			requests := h.HandleDNSInstance(ctx, instance)
			Expect(requests).To(HaveLen(1))
			Expect(requests[0].Name).To(Equal("departed"))
		})
	})

	When("no zone is related to the instance", func() {
		BeforeEach(func() {
			zone := createZone("unrelated", "other.example.org")
			zone.Spec.ClusterRef = "another-cluster"
			cl = newFakeClient(zone, instance)
		})

		It("enqueues nothing", func() {
			requests := h.HandleDNSInstance(ctx, instance)
			Expect(requests).To(BeEmpty())
		})
	})
})
