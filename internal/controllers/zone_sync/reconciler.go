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
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/directory"
	"github.com/zoneops-dev/zoneops/internal/indexes"
	"github.com/zoneops-dev/zoneops/internal/metrics"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
	"github.com/zoneops-dev/zoneops/internal/targets"
)

type Reconciler struct {
	cl       client.Client
	log      logr.Logger
	dialer   nsproto.Dialer
	resolver *targets.Resolver
	dir      *directory.Directory
}

var _ reconcile.Reconciler = (*Reconciler)(nil)

// NewReconciler creates a new Reconciler instance.
// This is primarily used for testing, as fields are private.
func NewReconciler(cl client.Client, log logr.Logger, dialer nsproto.Dialer) *Reconciler {
	return &Reconciler{
		cl:       cl,
		log:      log,
		dialer:   dialer,
		resolver: targets.NewResolver(cl),
		dir:      directory.New(cl),
	}
}

type dispatchOutcome struct {
	namespace string
	name      string
	role      v1alpha1.InstanceRole
	skipped   bool
	err       error
}

func (r *Reconciler) Reconcile(
	ctx context.Context,
	req reconcile.Request,
) (reconcile.Result, error) {
	log := r.log.WithName("Reconcile").WithValues("req", req)
	log.Info("Reconciling")

	zone := &v1alpha1.DNSZone{}
	if err := r.cl.Get(ctx, req.NamespacedName, zone); err != nil {
		log.Error(err, "Getting DNSZone")
		return reconcile.Result{}, client.IgnoreNotFound(err)
	}

	if zone.DeletionTimestamp != nil {
		log.Info("DNSZone is being deleted, skipping")
		return reconcile.Result{}, nil
	}

	dupOwner, err := r.duplicateOwner(ctx, zone)
	if err != nil {
		log.Error(err, "Checking for duplicate zone names")
		return reconcile.Result{}, err
	}
	if dupOwner != "" {
		log.Info("Zone name already claimed", "owner", dupOwner)
		return r.patchValidationFailure(ctx, zone,
			fmt.Sprintf("zone name %q is already claimed by DNSZone %s", zone.Spec.ZoneName, dupOwner))
	}

	instances, err := r.resolver.Instances(ctx, zone)
	if err != nil {
		log.Error(err, "Resolving target instances")
		return reconcile.Result{}, err
	}

	// Claim and unclaim entries are persisted before any dispatch so a
	// crash never loses track of an instance that may hold the zone.
	changed, err := r.patchClaims(ctx, zone, instances)
	if err != nil {
		log.Error(err, "Patching instance claims")
		return reconcile.Result{}, err
	}

	primaries, secondaries := targets.Split(instances)
	desiredIPs := secondaryAddresses(secondaries)
	primaryAddrs := primaryAddresses(primaries)
	drift := topologyDrifted(changed.Status.SecondaryIPs, desiredIPs)

	outcomes := make([]dispatchOutcome, len(instances))
	var eg errgroup.Group
	eg.SetLimit(dispatchParallelism)
	for i := range instances {
		idx := i
		inst := &instances[i]
		eg.Go(func() error {
			outcomes[idx] = r.dispatch(ctx, changed, inst, desiredIPs, primaryAddrs, drift)
			return nil
		})
	}
	_ = eg.Wait()

	removalFailures := r.cleanupUnclaimed(ctx, changed, log)

	return r.patchResult(ctx, zone, changed, instances, outcomes, desiredIPs, removalFailures, log)
}

// duplicateOwner returns the id of another DNSZone already owning this
// zone's spec.zoneName, or "" when this zone is the rightful owner. The
// oldest resource wins; ties break on namespace/name order.
func (r *Reconciler) duplicateOwner(ctx context.Context, zone *v1alpha1.DNSZone) (string, error) {
	var list v1alpha1.DNSZoneList
	if err := r.cl.List(ctx, &list,
		client.MatchingFields{indexes.IndexFieldZoneByZoneName: zone.Spec.ZoneName},
	); err != nil {
		return "", fmt.Errorf("listing zones by zoneName %q: %w", zone.Spec.ZoneName, err)
	}

	for i := range list.Items {
		other := &list.Items[i]
		if other.Namespace == zone.Namespace && other.Name == zone.Name {
			continue
		}
		if other.DeletionTimestamp != nil {
			continue
		}
		if zoneOutranks(other, zone) {
			return other.Namespace + "/" + other.Name, nil
		}
	}
	return "", nil
}

func zoneOutranks(a, b *v1alpha1.DNSZone) bool {
	if !a.CreationTimestamp.Equal(&b.CreationTimestamp) {
		return a.CreationTimestamp.Before(&b.CreationTimestamp)
	}
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	return a.Name < b.Name
}

func (r *Reconciler) patchValidationFailure(
	ctx context.Context,
	zone *v1alpha1.DNSZone,
	message string,
) (reconcile.Result, error) {
	from := client.MergeFrom(zone)
	changed := zone.DeepCopy()
	st := changed.EnsureStatus()
	st.ObservedGeneration = zone.Generation

	apimeta.SetStatusCondition(&st.Conditions, metav1.Condition{
		Type:               v1alpha1.ConditionTypeReady,
		Status:             metav1.ConditionFalse,
		Reason:             v1alpha1.ReasonDuplicateZoneName,
		Message:            message,
		ObservedGeneration: zone.Generation,
	})

	if err := r.cl.Status().Patch(ctx, changed, from); err != nil {
		return reconcile.Result{}, client.IgnoreNotFound(err)
	}
	return reconcile.Result{}, nil
}

// patchClaims records new targets as Claimed and departed ones as
// Unclaimed, returning the patched object for further mutation.
func (r *Reconciler) patchClaims(
	ctx context.Context,
	zone *v1alpha1.DNSZone,
	instances []v1alpha1.DNSInstance,
) (*v1alpha1.DNSZone, error) {
	from := client.MergeFrom(zone)
	changed := zone.DeepCopy()
	st := changed.EnsureStatus()

	targeted := make(map[string]*v1alpha1.DNSInstance, len(instances))
	for i := range instances {
		inst := &instances[i]
		targeted[inst.Namespace+"/"+inst.Name] = inst
	}

	for _, inst := range targeted {
		if st.FindInstanceStatus(inst.Namespace, inst.Name) != nil {
			continue
		}
		st.Instances = append(st.Instances, v1alpha1.InstanceSyncStatus{
			Name:      inst.Name,
			Namespace: inst.Namespace,
			Role:      inst.Spec.Role,
			State:     v1alpha1.InstanceSyncClaimed,
		})
	}

	for i := range st.Instances {
		entry := &st.Instances[i]
		if _, ok := targeted[entry.Namespace+"/"+entry.Name]; ok {
			continue
		}
		if entry.State != v1alpha1.InstanceSyncUnclaimed {
			entry.State = v1alpha1.InstanceSyncUnclaimed
			entry.Message = "instance left the target set, awaiting zone removal"
		}
	}

	sort.Slice(st.Instances, func(i, j int) bool {
		if st.Instances[i].Namespace != st.Instances[j].Namespace {
			return st.Instances[i].Namespace < st.Instances[j].Namespace
		}
		return st.Instances[i].Name < st.Instances[j].Name
	})

	if err := r.cl.Status().Patch(ctx, changed, from); err != nil {
		return nil, err
	}
	return changed, nil
}

func (r *Reconciler) dispatch(
	ctx context.Context,
	zone *v1alpha1.DNSZone,
	inst *v1alpha1.DNSInstance,
	secondaryIPs []string,
	primaryAddrs []string,
	drift bool,
) dispatchOutcome {
	oc := dispatchOutcome{namespace: inst.Namespace, name: inst.Name, role: inst.Spec.Role}

	// An instance already Configured stays untouched: re-dispatching an
	// unchanged pass would turn every status write into protocol traffic.
	// Primaries still get dispatched when the transfer topology drifted.
	entry := zone.Status.FindInstanceStatus(inst.Namespace, inst.Name)
	configured := entry != nil && entry.State == v1alpha1.InstanceSyncConfigured
	if configured && (!inst.IsPrimary() || !drift) {
		oc.skipped = true
		metrics.ZoneDispatches.WithLabelValues(string(oc.role), metrics.OutcomeSkipped).Inc()
		return oc
	}

	target, err := r.dir.Target(ctx, inst)
	if err != nil {
		oc.err = err
		return oc
	}
	conn, err := r.dialer.Dial(target)
	if err != nil {
		oc.err = err
		return oc
	}

	start := time.Now()
	if inst.IsPrimary() {
		oc.err = r.dispatchPrimary(ctx, conn, zone, inst, secondaryIPs, drift)
		metrics.DispatchDuration.WithLabelValues("primary-zone").Observe(time.Since(start).Seconds())
	} else {
		oc.err = r.dispatchSecondary(ctx, conn, zone, inst, primaryAddrs)
		metrics.DispatchDuration.WithLabelValues("secondary-zone").Observe(time.Since(start).Seconds())
	}

	outcome := metrics.OutcomeConfigured
	if oc.err != nil {
		outcome = metrics.OutcomeFailed
	}
	metrics.ZoneDispatches.WithLabelValues(string(oc.role), outcome).Inc()
	return oc
}

func (r *Reconciler) dispatchPrimary(
	ctx context.Context,
	conn nsproto.Client,
	zone *v1alpha1.DNSZone,
	inst *v1alpha1.DNSInstance,
	secondaryIPs []string,
	drift bool,
) error {
	pz := buildPrimaryZone(zone, secondaryIPs)

	entry := zone.Status.FindInstanceStatus(inst.Namespace, inst.Name)
	configured := entry != nil && entry.State == v1alpha1.InstanceSyncConfigured

	var err error
	if configured && drift {
		// the zone may have vanished out of band since it was configured;
		// reshaping a missing zone starts from a fresh add instead
		state, serr := conn.ZoneStatus(ctx, pz.Name)
		switch {
		case serr != nil && nsproto.IsTransient(serr):
			return serr
		case serr != nil || !state.Loaded:
			err = conn.AddPrimaryZone(ctx, pz)
		default:
			err = conn.UpdatePrimaryZone(ctx, pz)
			switch {
			case nsproto.IsNotSupported(err):
				err = recreatePrimary(ctx, conn, pz)
			case err == nil || nsproto.IsAlreadySatisfied(err):
				// the reshaped config takes effect on reload
				if rerr := conn.ReloadZone(ctx, pz.Name); rerr != nil && nsproto.IsTransient(rerr) {
					err = rerr
				}
			}
		}
	} else {
		err = conn.AddPrimaryZone(ctx, pz)
	}

	if nsproto.IsAlreadySatisfied(err) {
		return nil
	}
	return err
}

// recreatePrimary reshapes a zone on endpoints without in-place updates:
// quiesce dynamic updates, drop the zone, recreate it with the new
// topology, resume updates.
func recreatePrimary(ctx context.Context, conn nsproto.Client, pz nsproto.PrimaryZone) error {
	if err := conn.FreezeZone(ctx, pz.Name); err != nil && nsproto.IsTransient(err) {
		return err
	}
	if err := conn.DeleteZone(ctx, pz.Name); err != nil && !nsproto.IsAlreadySatisfied(err) {
		return err
	}
	if err := conn.AddPrimaryZone(ctx, pz); err != nil && !nsproto.IsAlreadySatisfied(err) {
		return err
	}
	if err := conn.ThawZone(ctx, pz.Name); err != nil && nsproto.IsTransient(err) {
		return err
	}
	return nil
}

func (r *Reconciler) dispatchSecondary(
	ctx context.Context,
	conn nsproto.Client,
	zone *v1alpha1.DNSZone,
	inst *v1alpha1.DNSInstance,
	primaryAddrs []string,
) error {
	primaries := inst.Spec.PrimaryServers
	if len(primaries) == 0 {
		primaries = primaryAddrs
	}
	if len(primaries) == 0 {
		return fmt.Errorf("secondary %s/%s has no primary endpoints to transfer from", inst.Namespace, inst.Name)
	}

	err := conn.AddSecondaryZone(ctx, nsproto.SecondaryZone{
		Name:      zone.Spec.ZoneName,
		Primaries: primaries,
	})
	if nsproto.IsAlreadySatisfied(err) {
		return nil
	}
	if err != nil {
		return err
	}
	// kick the first transfer so content converges now instead of on the
	// refresh timer
	if rerr := conn.RetransferZone(ctx, zone.Spec.ZoneName); rerr != nil && nsproto.IsTransient(rerr) {
		return rerr
	}
	return nil
}

// cleanupUnclaimed removes the zone from instances that left the target
// set. An entry leaves status.instances only after the removal succeeded
// or the instance itself is gone. Returns the number of failed removals.
func (r *Reconciler) cleanupUnclaimed(
	ctx context.Context,
	zone *v1alpha1.DNSZone,
	log logr.Logger,
) int {
	st := zone.Status
	if st == nil {
		return 0
	}

	failures := 0
	kept := st.Instances[:0]
	for i := range st.Instances {
		entry := st.Instances[i]
		if entry.State != v1alpha1.InstanceSyncUnclaimed {
			kept = append(kept, entry)
			continue
		}

		log := log.WithValues("instance", entry.Namespace+"/"+entry.Name)

		inst := &v1alpha1.DNSInstance{}
		err := r.cl.Get(ctx, types.NamespacedName{Namespace: entry.Namespace, Name: entry.Name}, inst)
		if err != nil {
			if client.IgnoreNotFound(err) == nil {
				// instance is gone, nothing left to clean
				log.Info("Unclaimed instance no longer exists, dropping entry")
				continue
			}
			entry.Message = err.Error()
			kept = append(kept, entry)
			failures++
			continue
		}

		if err := r.removeZone(ctx, inst, zone.Spec.ZoneName); err != nil {
			log.Error(err, "Removing zone from unclaimed instance")
			entry.Message = err.Error()
			kept = append(kept, entry)
			failures++
			continue
		}

		log.Info("Zone removed from unclaimed instance")
	}
	st.Instances = kept
	return failures
}

func (r *Reconciler) removeZone(ctx context.Context, inst *v1alpha1.DNSInstance, zoneName string) error {
	target, err := r.dir.Target(ctx, inst)
	if err != nil {
		return err
	}
	conn, err := r.dialer.Dial(target)
	if err != nil {
		return err
	}
	err = conn.DeleteZone(ctx, zoneName)
	if nsproto.IsAlreadySatisfied(err) {
		return nil
	}
	return err
}

func (r *Reconciler) patchResult(
	ctx context.Context,
	zone *v1alpha1.DNSZone,
	changed *v1alpha1.DNSZone,
	instances []v1alpha1.DNSInstance,
	outcomes []dispatchOutcome,
	desiredIPs []string,
	removalFailures int,
	log logr.Logger,
) (reconcile.Result, error) {
	from := client.MergeFrom(zone)
	st := changed.Status

	now := metav1.Now()
	var primaryFailed, secondaryFailed bool
	for _, oc := range outcomes {
		if oc.skipped {
			// untouched entries keep their timestamps so an unchanged pass
			// patches nothing and does not re-enqueue itself
			continue
		}
		entry := st.FindInstanceStatus(oc.namespace, oc.name)
		if entry == nil {
			continue
		}
		entry.Role = oc.role
		entry.LastReconciledAt = &now
		if oc.err != nil {
			entry.State = v1alpha1.InstanceSyncFailed
			entry.Message = oc.err.Error()
			if oc.role == v1alpha1.RolePrimary {
				primaryFailed = true
			} else {
				secondaryFailed = true
			}
		} else {
			entry.State = v1alpha1.InstanceSyncConfigured
			entry.Message = ""
		}
	}

	// The topology snapshot moves forward only once every primary carries
	// the new transfer set; a failed reshape is retried next pass.
	if !primaryFailed {
		st.SecondaryIPs = desiredIPs
	}

	st.ObservedGeneration = zone.Generation
	recordCount := int32(len(st.Records))
	st.RecordCount = &recordCount
	metrics.BoundRecords.WithLabelValues(changed.Spec.ZoneName).Set(float64(recordCount))

	cond := metav1.Condition{
		Type:               v1alpha1.ConditionTypeReady,
		ObservedGeneration: zone.Generation,
	}
	switch {
	case primaryFailed:
		cond.Status = metav1.ConditionFalse
		cond.Reason = v1alpha1.ReasonPrimaryFailed
		cond.Message = "one or more primary instances failed to accept the zone"
	case secondaryFailed:
		cond.Status = metav1.ConditionFalse
		cond.Reason = v1alpha1.ReasonSecondaryFailed
		cond.Message = "one or more secondary instances failed to accept the zone"
	case removalFailures > 0:
		cond.Status = metav1.ConditionFalse
		cond.Reason = v1alpha1.ReasonProgressing
		cond.Message = fmt.Sprintf("awaiting zone removal from %d unclaimed instances", removalFailures)
	case len(instances) == 0:
		cond.Status = metav1.ConditionTrue
		cond.Reason = v1alpha1.ReasonNoTargets
		cond.Message = "no instances target this zone"
	default:
		cond.Status = metav1.ConditionTrue
		cond.Reason = v1alpha1.ReasonAllInstancesConfigured
		cond.Message = fmt.Sprintf("zone configured on %d instances", len(instances))
	}
	apimeta.SetStatusCondition(&st.Conditions, cond)

	if err := r.cl.Status().Patch(ctx, changed, from); err != nil {
		log.Error(err, "Patching DNSZone status")
		return reconcile.Result{}, client.IgnoreNotFound(err)
	}

	if primaryFailed || secondaryFailed || removalFailures > 0 {
		return reconcile.Result{}, fmt.Errorf(
			"zone %s/%s: dispatch incomplete (primaryFailed=%t secondaryFailed=%t pendingRemovals=%d)",
			zone.Namespace, zone.Name, primaryFailed, secondaryFailed, removalFailures)
	}
	return reconcile.Result{}, nil
}
