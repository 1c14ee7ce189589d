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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// httpClient speaks the sidecar control API: bearer-authenticated JSON over
// HTTP. The sidecar translates calls into server configuration changes.
type httpClient struct {
	base  string
	token string
	hc    *http.Client
}

var _ Client = (*httpClient)(nil)

func newHTTPClient(target Target, timeout time.Duration) *httpClient {
	return &httpClient{
		base:  fmt.Sprintf("http://%s/api/v1", target.addr()),
		token: target.BearerToken,
		hc:    &http.Client{Timeout: timeout},
	}
}

type zonePayload struct {
	Name string `json:"name"`
	Type string `json:"type"`

	SOA           *SOAParameters    `json:"soa,omitempty"`
	TTL           int32             `json:"ttl,omitempty"`
	AllowTransfer []string          `json:"allowTransfer,omitempty"`
	AlsoNotify    []string          `json:"alsoNotify,omitempty"`
	Glue          map[string]string `json:"glue,omitempty"`
	Primaries     []string          `json:"primaries,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *httpClient) request(ctx context.Context, op, method, path string, body any) error {
	return c.requestJSON(ctx, op, method, path, body, nil)
}

func (c *httpClient) requestJSON(ctx context.Context, op, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return Validationf(op, "encoding request: %v", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return Validationf(op, "building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Transientf(op, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return Transientf(op, "%s %s: decoding response: %v", method, path, err)
		}
		return nil
	}

	msg := readErrorMessage(resp.Body)
	switch {
	case resp.StatusCode == http.StatusConflict:
		return AlreadySatisfiedf(op, "%s", msg)
	case resp.StatusCode == http.StatusNotFound && method == http.MethodDelete:
		return AlreadySatisfiedf(op, "%s", msg)
	case resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented:
		return NotSupportedf(op, "%s %s: %s", method, path, msg)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// some servers answer 400 instead of 409 for duplicate zones
		if strings.Contains(strings.ToLower(msg), "already exists") {
			return AlreadySatisfiedf(op, "%s", msg)
		}
		return Validationf(op, "%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	default:
		return Transientf(op, "%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "(no body)"
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	return string(raw)
}

func (c *httpClient) AddPrimaryZone(ctx context.Context, zone PrimaryZone) error {
	soa := zone.SOA
	return c.request(ctx, "add-primary-zone", http.MethodPost, "/zones", zonePayload{
		Name:          zone.Name,
		Type:          "primary",
		SOA:           &soa,
		TTL:           zone.DefaultTTL,
		AllowTransfer: zone.AllowTransfer,
		AlsoNotify:    zone.AlsoNotify,
		Glue:          zone.Glue,
	})
}

func (c *httpClient) UpdatePrimaryZone(ctx context.Context, zone PrimaryZone) error {
	soa := zone.SOA
	return c.request(ctx, "update-primary-zone", http.MethodPatch, "/zones/"+url.PathEscape(zone.Name), zonePayload{
		Name:          zone.Name,
		Type:          "primary",
		SOA:           &soa,
		TTL:           zone.DefaultTTL,
		AllowTransfer: zone.AllowTransfer,
		AlsoNotify:    zone.AlsoNotify,
		Glue:          zone.Glue,
	})
}

func (c *httpClient) AddSecondaryZone(ctx context.Context, zone SecondaryZone) error {
	return c.request(ctx, "add-secondary-zone", http.MethodPost, "/zones", zonePayload{
		Name:      zone.Name,
		Type:      "secondary",
		Primaries: zone.Primaries,
	})
}

func (c *httpClient) DeleteZone(ctx context.Context, zoneName string) error {
	return c.request(ctx, "delete-zone", http.MethodDelete, "/zones/"+url.PathEscape(zoneName), nil)
}

func (c *httpClient) PushRecord(ctx context.Context, zoneName string, rr RRSet) error {
	return c.request(ctx, "push-record", http.MethodPost, "/zones/"+url.PathEscape(zoneName)+"/records", rr)
}

func (c *httpClient) RemoveRecord(ctx context.Context, zoneName string, rr RRSet) error {
	return c.request(ctx, "remove-record", http.MethodDelete, "/zones/"+url.PathEscape(zoneName)+"/records", rr)
}

func (c *httpClient) NotifyZone(ctx context.Context, zoneName string) error {
	return c.request(ctx, "notify-zone", http.MethodPost, "/zones/"+url.PathEscape(zoneName)+"/notify", nil)
}

func (c *httpClient) ReloadZone(ctx context.Context, zoneName string) error {
	return c.request(ctx, "reload-zone", http.MethodPost, "/zones/"+url.PathEscape(zoneName)+"/reload", nil)
}

func (c *httpClient) RetransferZone(ctx context.Context, zoneName string) error {
	return c.request(ctx, "retransfer-zone", http.MethodPost, "/zones/"+url.PathEscape(zoneName)+"/retransfer", nil)
}

func (c *httpClient) FreezeZone(ctx context.Context, zoneName string) error {
	return c.request(ctx, "freeze-zone", http.MethodPost, "/zones/"+url.PathEscape(zoneName)+"/freeze", nil)
}

func (c *httpClient) ThawZone(ctx context.Context, zoneName string) error {
	return c.request(ctx, "thaw-zone", http.MethodPost, "/zones/"+url.PathEscape(zoneName)+"/thaw", nil)
}

func (c *httpClient) ZoneStatus(ctx context.Context, zoneName string) (ZoneState, error) {
	var state ZoneState
	err := c.requestJSON(ctx, "zone-status", http.MethodGet, "/zones/"+url.PathEscape(zoneName)+"/status", nil, &state)
	return state, err
}

func (c *httpClient) ServerStatus(ctx context.Context) (ServerState, error) {
	var state ServerState
	err := c.requestJSON(ctx, "server-status", http.MethodGet, "/status", nil, &state)
	return state, err
}
