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
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

func BuildController(mgr manager.Manager, kind v1alpha1.RecordKind) error {
	obj, ok := v1alpha1.RecordPrototype(kind).(client.Object)
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}

	log := mgr.GetLogger().WithName(ControllerName(kind))

	rec := NewReconciler(mgr.GetClient(), log, kind)
	h := NewHandler(mgr.GetClient(), log, kind)

	return builder.ControllerManagedBy(mgr).
		Named(ControllerName(kind)).
		For(obj).
		Watches(
			&v1alpha1.DNSZone{},
			handler.EnqueueRequestsFromMapFunc(h.HandleDNSZone),
		).
		Complete(rec)
}
