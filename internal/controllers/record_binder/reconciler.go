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

package recordbinder

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/targets"
)

type Reconciler struct {
	cl   client.Client
	log  logr.Logger
	kind v1alpha1.RecordKind
}

var _ reconcile.Reconciler = (*Reconciler)(nil)

// NewReconciler creates a new Reconciler instance.
// This is primarily used for testing, as fields are private.
func NewReconciler(cl client.Client, log logr.Logger, kind v1alpha1.RecordKind) *Reconciler {
	return &Reconciler{
		cl:   cl,
		log:  log,
		kind: kind,
	}
}

func (r *Reconciler) Reconcile(
	ctx context.Context,
	req reconcile.Request,
) (reconcile.Result, error) {
	log := r.log.WithName("Reconcile").WithValues("req", req)

	obj, ok := v1alpha1.RecordPrototype(r.kind).(client.Object)
	if !ok {
		log.Error(nil, "Unknown record kind", "kind", r.kind)
		return reconcile.Result{}, nil
	}
	if err := r.cl.Get(ctx, req.NamespacedName, obj); err != nil {
		log.Error(err, "Getting record")
		return reconcile.Result{}, client.IgnoreNotFound(err)
	}
	rec := obj.(v1alpha1.RecordObject)

	if rec.GetDeletionTimestamp() != nil {
		return reconcile.Result{}, nil
	}

	zone, err := r.matchZone(ctx, rec, log)
	if err != nil {
		log.Error(err, "Matching zones")
		return reconcile.Result{}, err
	}

	base := obj.DeepCopyObject().(client.Object)
	st := rec.EnsureRecordStatus()
	st.ObservedGeneration = rec.GetGeneration()

	if zone == nil {
		if st.ZoneRef != nil {
			log.Info("Record lost its zone binding", "zoneRef", *st.ZoneRef)
		}
		st.ZoneRef = nil
		apimeta.SetStatusCondition(&st.Conditions, metav1.Condition{
			Type:               v1alpha1.ConditionTypeReady,
			Status:             metav1.ConditionFalse,
			Reason:             v1alpha1.ReasonAwaitingZoneBinding,
			Message:            "no zone selects this record",
			ObservedGeneration: rec.GetGeneration(),
		})
	} else {
		st.ZoneRef = &v1alpha1.ZoneReference{
			Name:      zone.Name,
			Namespace: zone.Namespace,
			ZoneName:  zone.Spec.ZoneName,
		}
	}

	if err := r.cl.Status().Patch(ctx, obj, client.MergeFrom(base)); err != nil {
		log.Error(err, "Patching record status")
		return reconcile.Result{}, client.IgnoreNotFound(err)
	}
	return reconcile.Result{}, nil
}

// matchZone returns the zone that binds the record, or nil. Candidates
// are the zones in the record's namespace ordered by name; the first
// whose recordsFrom selector matches wins.
func (r *Reconciler) matchZone(
	ctx context.Context,
	rec v1alpha1.RecordObject,
	log logr.Logger,
) (*v1alpha1.DNSZone, error) {
	var zones v1alpha1.DNSZoneList
	if err := r.cl.List(ctx, &zones, client.InNamespace(rec.GetNamespace())); err != nil {
		return nil, err
	}

	sort.Slice(zones.Items, func(i, j int) bool {
		return zones.Items[i].Name < zones.Items[j].Name
	})

	for i := range zones.Items {
		zone := &zones.Items[i]
		if zone.DeletionTimestamp != nil {
			continue
		}
		matched, err := targets.SelectsLabels(zone, rec.GetLabels())
		if err != nil {
			// invalid selectors surface on the zone itself
			log.Info("Skipping zone with invalid recordsFrom selector",
				"zone", zone.Name, "error", err.Error())
			continue
		}
		if matched {
			return zone, nil
		}
	}
	return nil, nil
}
