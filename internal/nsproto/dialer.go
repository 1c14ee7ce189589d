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

package nsproto

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

// TSIGCredentials is parsed keyed-transport credential material.
// Secret stays base64-encoded, as miekg/dns expects.
type TSIGCredentials struct {
	KeyName   string
	Algorithm string
	Secret    string
}

// Target identifies one reachable name-server control endpoint.
type Target struct {
	Host      string
	Port      int32
	Transport v1alpha1.TransportKind

	// BearerToken authenticates HTTP transport calls.
	BearerToken string
	// TSIG authenticates keyed transport calls. Required for TransportKeyed.
	TSIG *TSIGCredentials
}

func (t Target) addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// Dialer builds protocol clients for targets. It exists as an interface so
// reconciler tests can substitute in-memory fakes.
type Dialer interface {
	Dial(target Target) (Client, error)
}

type DialerOptions struct {
	// Timeout bounds each protocol call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Retries is the number of additional attempts for transient failures.
	Retries int
}

const DefaultTimeout = 15 * time.Second

type dialer struct {
	opts DialerOptions
}

// NewDialer returns the production dialer: HTTP transport targets get the
// bearer-token JSON client, keyed targets get the HMAC command channel with
// TSIG dynamic updates for records. Every client is wrapped with per-call
// timeout and transient-error retry.
func NewDialer(opts DialerOptions) Dialer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &dialer{opts: opts}
}

func (d *dialer) Dial(target Target) (Client, error) {
	var cl Client
	switch target.Transport {
	case v1alpha1.TransportHTTP, "":
		cl = newHTTPClient(target, d.opts.Timeout)
	case v1alpha1.TransportKeyed:
		if target.TSIG == nil {
			return nil, Validationf("dial", "keyed transport target %s has no credentials", target.addr())
		}
		cl = newKeyedClient(target, d.opts.Timeout)
	default:
		return nil, Validationf("dial", "unknown transport %q", target.Transport)
	}
	return &retryingClient{inner: cl, timeout: d.opts.Timeout, retries: d.opts.Retries}, nil
}

// retryingClient retries transient failures with exponential backoff and
// bounds every attempt with the configured timeout.
type retryingClient struct {
	inner   Client
	timeout time.Duration
	retries int
}

var _ Client = (*retryingClient)(nil)

func (c *retryingClient) do(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := wait.Backoff{
		Duration: 200 * time.Millisecond,
		Factor:   2.0,
		Jitter:   0.1,
		Steps:    c.retries + 1,
	}

	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		lastErr = op(attemptCtx)
		if lastErr == nil {
			return true, nil
		}
		if !IsTransient(lastErr) {
			// terminal classes propagate immediately
			return false, lastErr
		}
		return false, nil
	})
	if err == nil {
		return nil
	}
	// wait returns its own error when attempts run out; the last protocol
	// error is more useful to the caller.
	if lastErr != nil {
		return lastErr
	}
	return err
}

func (c *retryingClient) AddPrimaryZone(ctx context.Context, zone PrimaryZone) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.AddPrimaryZone(ctx, zone) })
}

func (c *retryingClient) UpdatePrimaryZone(ctx context.Context, zone PrimaryZone) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.UpdatePrimaryZone(ctx, zone) })
}

func (c *retryingClient) AddSecondaryZone(ctx context.Context, zone SecondaryZone) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.AddSecondaryZone(ctx, zone) })
}

func (c *retryingClient) DeleteZone(ctx context.Context, zoneName string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.DeleteZone(ctx, zoneName) })
}

func (c *retryingClient) PushRecord(ctx context.Context, zoneName string, rr RRSet) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.PushRecord(ctx, zoneName, rr) })
}

func (c *retryingClient) RemoveRecord(ctx context.Context, zoneName string, rr RRSet) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.RemoveRecord(ctx, zoneName, rr) })
}

func (c *retryingClient) NotifyZone(ctx context.Context, zoneName string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.NotifyZone(ctx, zoneName) })
}

func (c *retryingClient) ReloadZone(ctx context.Context, zoneName string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.ReloadZone(ctx, zoneName) })
}

func (c *retryingClient) RetransferZone(ctx context.Context, zoneName string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.RetransferZone(ctx, zoneName) })
}

func (c *retryingClient) FreezeZone(ctx context.Context, zoneName string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.FreezeZone(ctx, zoneName) })
}

func (c *retryingClient) ThawZone(ctx context.Context, zoneName string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.inner.ThawZone(ctx, zoneName) })
}

func (c *retryingClient) ZoneStatus(ctx context.Context, zoneName string) (ZoneState, error) {
	var state ZoneState
	err := c.do(ctx, func(ctx context.Context) error {
		var innerErr error
		state, innerErr = c.inner.ZoneStatus(ctx, zoneName)
		return innerErr
	})
	return state, err
}

func (c *retryingClient) ServerStatus(ctx context.Context) (ServerState, error) {
	var state ServerState
	err := c.do(ctx, func(ctx context.Context) error {
		var innerErr error
		state, innerErr = c.inner.ServerStatus(ctx)
		return innerErr
	})
	return state, err
}
