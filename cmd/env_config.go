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
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	PodNamespaceEnvVar            = "POD_NAMESPACE"
	DefaultPodNamespace           = "zoneops"
	HealthProbeBindAddressEnvVar  = "HEALTH_PROBE_BIND_ADDRESS"
	DefaultHealthProbeBindAddress = ":4271"
	MetricsPortEnvVar             = "METRICS_BIND_ADDRESS"
	DefaultMetricsBindAddress     = ":4272"
	ProtocolTimeoutEnvVar         = "ZONEOPS_PROTOCOL_TIMEOUT"
	DefaultProtocolTimeout        = 15 * time.Second
	ProtocolRetriesEnvVar         = "ZONEOPS_PROTOCOL_RETRIES"
	DefaultProtocolRetries        = 3
	DisabledControllersEnvVar     = "ZONEOPS_DISABLED_CONTROLLERS"
)

type EnvConfig struct {
	podNamespace           string
	healthProbeBindAddress string
	metricsBindAddress     string
	protocolTimeout        time.Duration
	protocolRetries        int
	disabledControllers    []string
}

func (c *EnvConfig) PodNamespace() string           { return c.podNamespace }
func (c *EnvConfig) HealthProbeBindAddress() string { return c.healthProbeBindAddress }
func (c *EnvConfig) MetricsBindAddress() string     { return c.metricsBindAddress }
func (c *EnvConfig) ProtocolTimeout() time.Duration { return c.protocolTimeout }
func (c *EnvConfig) ProtocolRetries() int           { return c.protocolRetries }

func (c *EnvConfig) IsControllerEnabled(name string) bool {
	return !slices.Contains(c.disabledControllers, name)
}

func GetEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{
		protocolTimeout: DefaultProtocolTimeout,
		protocolRetries: DefaultProtocolRetries,
	}

	cfg.podNamespace = os.Getenv(PodNamespaceEnvVar)
	if cfg.podNamespace == "" {
		cfg.podNamespace = DefaultPodNamespace
	}

	cfg.healthProbeBindAddress = os.Getenv(HealthProbeBindAddressEnvVar)
	if cfg.healthProbeBindAddress == "" {
		cfg.healthProbeBindAddress = DefaultHealthProbeBindAddress
	}

	cfg.metricsBindAddress = os.Getenv(MetricsPortEnvVar)
	if cfg.metricsBindAddress == "" {
		cfg.metricsBindAddress = DefaultMetricsBindAddress
	}

	if v := os.Getenv(ProtocolTimeoutEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ProtocolTimeoutEnvVar, err)
		}
		cfg.protocolTimeout = d
	}

	if v := os.Getenv(ProtocolRetriesEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ProtocolRetriesEnvVar, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("%s must be non-negative, got %d", ProtocolRetriesEnvVar, n)
		}
		cfg.protocolRetries = n
	}

	if v := os.Getenv(DisabledControllersEnvVar); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.disabledControllers = append(cfg.disabledControllers, name)
			}
		}
	}

	return cfg, nil
}
