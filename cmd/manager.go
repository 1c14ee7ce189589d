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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/metrics/server"

	u "github.com/deckhouse/sds-common-lib/utils"
	"github.com/zoneops-dev/zoneops/internal/controllers"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
	"github.com/zoneops-dev/zoneops/internal/scheme"
)

type managerConfig interface {
	PodNamespace() string
	HealthProbeBindAddress() string
	MetricsBindAddress() string
	ProtocolTimeout() time.Duration
	ProtocolRetries() int
	IsControllerEnabled(name string) bool
}

func newManager(
	ctx context.Context,
	log *slog.Logger,
	envConfig managerConfig,
) (manager.Manager, error) {
	config, err := config.GetConfig()
	if err != nil {
		return nil, u.LogError(log, fmt.Errorf("getting rest config: %w", err))
	}

	scheme, err := scheme.New()
	if err != nil {
		return nil, u.LogError(log, fmt.Errorf("building scheme: %w", err))
	}

	// Leases short enough that a rescheduled pod resumes zone pushes within
	// seconds, long enough to survive an apiserver hiccup.
	leaseDuration := 15 * time.Second
	renewDeadline := 10 * time.Second
	retryPeriod := 2 * time.Second

	mgrOpts := manager.Options{
		Scheme:                  scheme,
		BaseContext:             func() context.Context { return ctx },
		Logger:                  logr.FromSlogHandler(log.Handler()),
		HealthProbeBindAddress:  envConfig.HealthProbeBindAddress(),
		LeaderElection:          true,
		LeaderElectionNamespace: envConfig.PodNamespace(),
		LeaderElectionID:        "zoneops-controller",
		LeaseDuration:           &leaseDuration,
		RenewDeadline:           &renewDeadline,
		RetryPeriod:             &retryPeriod,
		Metrics: server.Options{
			BindAddress: envConfig.MetricsBindAddress(),
		},
	}

	mgr, err := manager.New(config, mgrOpts)
	if err != nil {
		return nil, u.LogError(log, fmt.Errorf("creating manager: %w", err))
	}

	if err = mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return nil, u.LogError(log, fmt.Errorf("AddHealthzCheck: %w", err))
	}

	if err = mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return nil, u.LogError(log, fmt.Errorf("AddReadyzCheck: %w", err))
	}

	dialer := nsproto.NewDialer(nsproto.DialerOptions{
		Timeout: envConfig.ProtocolTimeout(),
		Retries: envConfig.ProtocolRetries(),
	})

	if err := controllers.BuildAll(mgr, dialer, envConfig.IsControllerEnabled); err != nil {
		return nil, err
	}

	return mgr, nil
}
