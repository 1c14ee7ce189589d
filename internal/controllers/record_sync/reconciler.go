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

package recordsync

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/directory"
	"github.com/zoneops-dev/zoneops/internal/metrics"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
	"github.com/zoneops-dev/zoneops/internal/targets"
)

type Reconciler struct {
	cl       client.Client
	log      logr.Logger
	kind     v1alpha1.RecordKind
	dialer   nsproto.Dialer
	resolver *targets.Resolver
	dir      *directory.Directory
}

var _ reconcile.Reconciler = (*Reconciler)(nil)

// NewReconciler creates a new Reconciler instance.
// This is primarily used for testing, as fields are private.
func NewReconciler(cl client.Client, log logr.Logger, kind v1alpha1.RecordKind, dialer nsproto.Dialer) *Reconciler {
	return &Reconciler{
		cl:       cl,
		log:      log,
		kind:     kind,
		dialer:   dialer,
		resolver: targets.NewResolver(cl),
		dir:      directory.New(cl),
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
		return r.finalize(ctx, obj, rec, log)
	}

	if !controllerutil.ContainsFinalizer(obj, Finalizer) {
		base := obj.DeepCopyObject().(client.Object)
		controllerutil.AddFinalizer(obj, Finalizer)
		if err := r.cl.Patch(ctx, obj, client.MergeFrom(base)); err != nil {
			log.Error(err, "Adding finalizer")
			return reconcile.Result{}, client.IgnoreNotFound(err)
		}
	}

	var ref *v1alpha1.ZoneReference
	if st := rec.GetRecordStatus(); st != nil {
		ref = st.ZoneRef
	}

	if err := r.pruneStaleBindings(ctx, rec, ref, log); err != nil {
		log.Error(err, "Pruning stale zone bindings")
		return reconcile.Result{}, err
	}

	if ref == nil {
		// while unbound the binder owns the Ready condition
		return reconcile.Result{}, nil
	}

	zone := &v1alpha1.DNSZone{}
	if err := r.cl.Get(ctx, types.NamespacedName{Namespace: ref.Namespace, Name: ref.Name}, zone); err != nil {
		if client.IgnoreNotFound(err) == nil {
			log.Info("Bound zone no longer exists", "zoneRef", *ref)
			return reconcile.Result{}, r.patchCondition(ctx, obj, rec, metav1.Condition{
				Type:    v1alpha1.ConditionTypeReady,
				Status:  metav1.ConditionFalse,
				Reason:  v1alpha1.ReasonZoneReferenceNotFound,
				Message: fmt.Sprintf("bound zone %s/%s no longer exists", ref.Namespace, ref.Name),
			})
		}
		log.Error(err, "Getting bound zone")
		return reconcile.Result{}, err
	}

	instances, err := r.resolver.Instances(ctx, zone)
	if err != nil {
		log.Error(err, "Resolving zone instances")
		return reconcile.Result{}, err
	}
	primaries, _ := targets.Split(instances)
	if len(primaries) == 0 {
		return reconcile.Result{}, r.patchCondition(ctx, obj, rec, metav1.Condition{
			Type:    v1alpha1.ConditionTypeReady,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ReasonRecordPushFailed,
			Message: "bound zone has no primary instances",
		})
	}

	rr, err := nsproto.BuildRRSet(rec, zoneDefaultTTL(zone))
	if err != nil {
		// structural, retrying cannot help
		return reconcile.Result{}, r.patchCondition(ctx, obj, rec, metav1.Condition{
			Type:    v1alpha1.ConditionTypeReady,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ReasonRecordPushFailed,
			Message: err.Error(),
		})
	}

	pushed := 0
	var firstErr error
	for i := range primaries {
		inst := &primaries[i]
		if err := r.pushTo(ctx, inst, zone.Spec.ZoneName, rr, log); err != nil {
			metrics.RecordPushes.WithLabelValues(string(r.kind), metrics.OutcomeFailed).Inc()
			if firstErr == nil {
				firstErr = fmt.Errorf("instance %s/%s: %w", inst.Namespace, inst.Name, err)
			}
			continue
		}
		metrics.RecordPushes.WithLabelValues(string(r.kind), metrics.OutcomeConfigured).Inc()
		pushed++
	}

	if pushed > 0 {
		if err := r.ensureInventory(ctx, ref, rec, log); err != nil {
			log.Error(err, "Updating zone record inventory")
			return reconcile.Result{}, err
		}
	}

	if pushed == 0 {
		if err := r.patchCondition(ctx, obj, rec, metav1.Condition{
			Type:    v1alpha1.ConditionTypeReady,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ReasonRecordPushFailed,
			Message: firstErr.Error(),
		}); err != nil {
			return reconcile.Result{}, err
		}
		return reconcile.Result{}, firstErr
	}

	// at least one endpoint serves the record; failed endpoints get
	// retried via the returned error without degrading the condition
	if err := r.patchCondition(ctx, obj, rec, metav1.Condition{
		Type:    v1alpha1.ConditionTypeReady,
		Status:  metav1.ConditionTrue,
		Reason:  v1alpha1.ReasonRecordPushed,
		Message: fmt.Sprintf("record pushed to %d endpoints", pushed),
	}); err != nil {
		return reconcile.Result{}, err
	}
	return reconcile.Result{}, firstErr
}

// finalize withdraws the RRset from every zone still listing the record,
// then releases the finalizer.
func (r *Reconciler) finalize(
	ctx context.Context,
	obj client.Object,
	rec v1alpha1.RecordObject,
	log logr.Logger,
) (reconcile.Result, error) {
	if !controllerutil.ContainsFinalizer(obj, Finalizer) {
		return reconcile.Result{}, nil
	}

	if err := r.pruneStaleBindings(ctx, rec, nil, log); err != nil {
		log.Error(err, "Withdrawing record on deletion")
		return reconcile.Result{}, err
	}

	base := obj.DeepCopyObject().(client.Object)
	controllerutil.RemoveFinalizer(obj, Finalizer)
	if err := r.cl.Patch(ctx, obj, client.MergeFrom(base)); err != nil {
		log.Error(err, "Removing finalizer")
		return reconcile.Result{}, client.IgnoreNotFound(err)
	}
	return reconcile.Result{}, nil
}

// pruneStaleBindings withdraws the record from every zone in its
// namespace whose inventory lists it, except the zone keep points to.
// keep == nil withdraws everywhere.
func (r *Reconciler) pruneStaleBindings(
	ctx context.Context,
	rec v1alpha1.RecordObject,
	keep *v1alpha1.ZoneReference,
	log logr.Logger,
) error {
	var zones v1alpha1.DNSZoneList
	if err := r.cl.List(ctx, &zones, client.InNamespace(rec.GetNamespace())); err != nil {
		return fmt.Errorf("listing zones: %w", err)
	}

	rr, err := nsproto.BuildRRSet(rec, nsproto.DefaultRecordTTL)
	if err != nil {
		// an unrenderable record cannot be on any server either
		return nil
	}

	for i := range zones.Items {
		zone := &zones.Items[i]
		if keep != nil && zone.Namespace == keep.Namespace && zone.Name == keep.Name {
			continue
		}
		if zone.Status == nil || !zone.Status.HasBoundRecord(rec.GetRecordKind(), rec.GetName()) {
			continue
		}

		log.Info("Withdrawing record from zone", "zone", zone.Name)
		if err := r.withdrawFrom(ctx, zone, rr, log); err != nil {
			return fmt.Errorf("withdrawing from zone %s/%s: %w", zone.Namespace, zone.Name, err)
		}
		if err := r.dropInventory(ctx, zone, rec); err != nil {
			return fmt.Errorf("updating inventory of zone %s/%s: %w", zone.Namespace, zone.Name, err)
		}
	}
	return nil
}

func (r *Reconciler) withdrawFrom(
	ctx context.Context,
	zone *v1alpha1.DNSZone,
	rr nsproto.RRSet,
	log logr.Logger,
) error {
	instances, err := r.resolver.Instances(ctx, zone)
	if err != nil {
		return err
	}
	primaries, _ := targets.Split(instances)

	for i := range primaries {
		inst := &primaries[i]
		target, err := r.dir.Target(ctx, inst)
		if err != nil {
			return err
		}
		conn, err := r.dialer.Dial(target)
		if err != nil {
			return err
		}
		if err := conn.RemoveRecord(ctx, zone.Spec.ZoneName, rr); err != nil && !nsproto.IsAlreadySatisfied(err) {
			return err
		}
		if err := conn.NotifyZone(ctx, zone.Spec.ZoneName); err != nil {
			log.V(1).Info("Notify after withdrawal failed", "instance", inst.Name, "error", err.Error())
		}
	}
	return nil
}

func (r *Reconciler) pushTo(
	ctx context.Context,
	inst *v1alpha1.DNSInstance,
	zoneName string,
	rr nsproto.RRSet,
	log logr.Logger,
) error {
	target, err := r.dir.Target(ctx, inst)
	if err != nil {
		return err
	}
	conn, err := r.dialer.Dial(target)
	if err != nil {
		return err
	}
	if err := conn.PushRecord(ctx, zoneName, rr); err != nil && !nsproto.IsAlreadySatisfied(err) {
		return err
	}
	// notify is best effort, transfer also runs on the refresh timer
	if err := conn.NotifyZone(ctx, zoneName); err != nil {
		log.V(1).Info("Notify after push failed", "instance", inst.Name, "error", err.Error())
	}
	return nil
}

// ensureInventory adds the record to the bound zone's status.records.
func (r *Reconciler) ensureInventory(
	ctx context.Context,
	ref *v1alpha1.ZoneReference,
	rec v1alpha1.RecordObject,
	log logr.Logger,
) error {
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		zone := &v1alpha1.DNSZone{}
		if err := r.cl.Get(ctx, types.NamespacedName{Namespace: ref.Namespace, Name: ref.Name}, zone); err != nil {
			return client.IgnoreNotFound(err)
		}

		st := zone.Status
		if st != nil && st.HasBoundRecord(rec.GetRecordKind(), rec.GetName()) {
			return nil
		}

		base := zone.DeepCopy()
		st = zone.EnsureStatus()
		st.Records = append(st.Records, v1alpha1.BoundRecord{
			Kind: rec.GetRecordKind(),
			Name: rec.GetName(),
		})
		count := int32(len(st.Records))
		st.RecordCount = &count
		log.V(1).Info("Recording zone binding", "zone", ref.Name)
		return r.cl.Status().Patch(ctx, zone, client.MergeFrom(base))
	})
}

// dropInventory removes the record from the zone's status.records.
func (r *Reconciler) dropInventory(
	ctx context.Context,
	zone *v1alpha1.DNSZone,
	rec v1alpha1.RecordObject,
) error {
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		fresh := &v1alpha1.DNSZone{}
		if err := r.cl.Get(ctx, client.ObjectKeyFromObject(zone), fresh); err != nil {
			return client.IgnoreNotFound(err)
		}
		st := fresh.Status
		if st == nil || !st.HasBoundRecord(rec.GetRecordKind(), rec.GetName()) {
			return nil
		}

		base := fresh.DeepCopy()
		kept := st.Records[:0]
		for _, br := range st.Records {
			if br.Kind == rec.GetRecordKind() && br.Name == rec.GetName() {
				continue
			}
			kept = append(kept, br)
		}
		st.Records = kept
		count := int32(len(st.Records))
		st.RecordCount = &count
		return r.cl.Status().Patch(ctx, fresh, client.MergeFrom(base))
	})
}

func (r *Reconciler) patchCondition(
	ctx context.Context,
	obj client.Object,
	rec v1alpha1.RecordObject,
	cond metav1.Condition,
) error {
	base := obj.DeepCopyObject().(client.Object)
	st := rec.EnsureRecordStatus()
	st.ObservedGeneration = rec.GetGeneration()
	cond.ObservedGeneration = rec.GetGeneration()
	apimeta.SetStatusCondition(&st.Conditions, cond)
	return client.IgnoreNotFound(r.cl.Status().Patch(ctx, obj, client.MergeFrom(base)))
}

func zoneDefaultTTL(zone *v1alpha1.DNSZone) int32 {
	if zone.Spec.TTL != nil {
		return *zone.Spec.TTL
	}
	return nsproto.DefaultRecordTTL
}
