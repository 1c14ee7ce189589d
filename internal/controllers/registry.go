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

package controllers

import (
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/manager"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	instancestatus "github.com/zoneops-dev/zoneops/internal/controllers/instance_status"
	recordbinder "github.com/zoneops-dev/zoneops/internal/controllers/record_binder"
	recordsync "github.com/zoneops-dev/zoneops/internal/controllers/record_sync"
	zonesync "github.com/zoneops-dev/zoneops/internal/controllers/zone_sync"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
)

// BuildAll builds all controllers. dialer carries the protocol timeout and
// retry policy shared by every controller talking to name servers.
// isEnabled lets deployments turn individual controllers off by name.
func BuildAll(mgr manager.Manager, dialer nsproto.Dialer, isEnabled func(name string) bool) error {
	// Must be first: controllers rely on MatchingFields against these indexes.
	if err := RegisterIndexes(mgr); err != nil {
		return fmt.Errorf("building indexes: %w", err)
	}

	if isEnabled(zonesync.ZoneSyncControllerName) {
		if err := zonesync.BuildController(mgr, dialer); err != nil {
			return fmt.Errorf("building %s: %w", zonesync.ZoneSyncControllerName, err)
		}
	}

	if isEnabled(instancestatus.InstanceStatusControllerName) {
		if err := instancestatus.BuildController(mgr, dialer); err != nil {
			return fmt.Errorf("building %s: %w", instancestatus.InstanceStatusControllerName, err)
		}
	}

	for _, kind := range v1alpha1.RecordKinds() {
		if isEnabled(recordbinder.ControllerName(kind)) {
			if err := recordbinder.BuildController(mgr, kind); err != nil {
				return fmt.Errorf("building %s: %w", recordbinder.ControllerName(kind), err)
			}
		}
		if isEnabled(recordsync.ControllerName(kind)) {
			if err := recordsync.BuildController(mgr, kind, dialer); err != nil {
				return fmt.Errorf("building %s: %w", recordsync.ControllerName(kind), err)
			}
		}
	}

	return nil
}
