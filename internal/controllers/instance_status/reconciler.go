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

package instancestatus

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	"github.com/zoneops-dev/zoneops/internal/directory"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
)

type Reconciler struct {
	cl     client.Client
	log    logr.Logger
	dialer nsproto.Dialer
	dir    *directory.Directory
}

var _ reconcile.Reconciler = (*Reconciler)(nil)

// NewReconciler creates a new Reconciler instance.
// This is primarily used for testing, as fields are private.
func NewReconciler(cl client.Client, log logr.Logger, dialer nsproto.Dialer) *Reconciler {
	return &Reconciler{
		cl:     cl,
		log:    log,
		dialer: dialer,
		dir:    directory.New(cl),
	}
}

func (r *Reconciler) Reconcile(
	ctx context.Context,
	req reconcile.Request,
) (reconcile.Result, error) {
	log := r.log.WithName("Reconcile").WithValues("req", req)

	inst := &v1alpha1.DNSInstance{}
	if err := r.cl.Get(ctx, req.NamespacedName, inst); err != nil {
		log.Error(err, "Getting DNSInstance")
		return reconcile.Result{}, client.IgnoreNotFound(err)
	}
	if inst.DeletionTimestamp != nil {
		return reconcile.Result{}, nil
	}

	cond := r.probe(ctx, inst, log)
	if err := r.patchCondition(ctx, inst, cond); err != nil {
		log.Error(err, "Patching DNSInstance status")
		return reconcile.Result{}, err
	}

	interval := probeInterval
	if cond.Status == metav1.ConditionFalse && cond.Reason == v1alpha1.ReasonEndpointUnresolved {
		interval = failedProbeInterval
	}
	return reconcile.Result{RequeueAfter: interval}, nil
}

func (r *Reconciler) probe(
	ctx context.Context,
	inst *v1alpha1.DNSInstance,
	log logr.Logger,
) metav1.Condition {
	target, err := r.dir.Target(ctx, inst)
	if err != nil {
		log.Info("Instance credentials unavailable", "error", err.Error())
		return metav1.Condition{
			Type:    v1alpha1.ConditionTypeReady,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ReasonCredentialsMissing,
			Message: err.Error(),
		}
	}

	conn, err := r.dialer.Dial(target)
	if err != nil {
		return metav1.Condition{
			Type:    v1alpha1.ConditionTypeReady,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ReasonEndpointUnresolved,
			Message: err.Error(),
		}
	}

	state, err := conn.ServerStatus(ctx)
	if err != nil {
		log.Info("Instance did not answer status probe", "error", err.Error())
		return metav1.Condition{
			Type:    v1alpha1.ConditionTypeReady,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ReasonEndpointUnresolved,
			Message: err.Error(),
		}
	}

	msg := fmt.Sprintf("serving %d zones", state.ZoneCount)
	if state.Version != "" {
		msg = fmt.Sprintf("%s (%s)", msg, state.Version)
	}
	return metav1.Condition{
		Type:    v1alpha1.ConditionTypeReady,
		Status:  metav1.ConditionTrue,
		Reason:  v1alpha1.ReasonEndpointResolved,
		Message: msg,
	}
}

func (r *Reconciler) patchCondition(
	ctx context.Context,
	inst *v1alpha1.DNSInstance,
	cond metav1.Condition,
) error {
	from := client.MergeFrom(inst)
	changed := inst.DeepCopy()
	if changed.Status == nil {
		changed.Status = &v1alpha1.DNSInstanceStatus{}
	}
	cond.ObservedGeneration = inst.Generation
	apimeta.SetStatusCondition(&changed.Status.Conditions, cond)
	return client.IgnoreNotFound(r.cl.Status().Patch(ctx, changed, from))
}
