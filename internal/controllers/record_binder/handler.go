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

	"github.com/go-logr/logr"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

type Handler struct {
	cl   client.Client
	log  logr.Logger
	kind v1alpha1.RecordKind
}

func NewHandler(cl client.Client, log logr.Logger, kind v1alpha1.RecordKind) *Handler {
	return &Handler{
		cl:   cl,
		log:  log,
		kind: kind,
	}
}

// HandleDNSZone enqueues every record of the handler's kind in the zone's
// namespace. Zone selector edits can bind or unbind any of them, so the
// whole namespace is re-evaluated rather than pre-filtering by label.
func (h *Handler) HandleDNSZone(ctx context.Context, obj client.Object) []reconcile.Request {
	log := h.log.WithName("HandleDNSZone").WithValues("zone", client.ObjectKeyFromObject(obj))

	list, ok := v1alpha1.RecordListPrototype(h.kind).(client.ObjectList)
	if !ok {
		log.Error(nil, "Unknown record kind", "kind", h.kind)
		return nil
	}
	if err := h.cl.List(ctx, list, client.InNamespace(obj.GetNamespace())); err != nil {
		log.Error(err, "Listing records")
		return nil
	}

	items, err := apimeta.ExtractList(list)
	if err != nil {
		log.Error(err, "Extracting record list")
		return nil
	}

	requests := make([]reconcile.Request, 0, len(items))
	for _, item := range items {
		rec, ok := item.(client.Object)
		if !ok {
			continue
		}
		requests = append(requests, reconcile.Request{
			NamespacedName: client.ObjectKeyFromObject(rec),
		})
	}
	return requests
}
