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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miekg/dns"
)

// dnsPort is where dynamic updates and NOTIFY go. The keyed control port
// only carries zone management commands.
const dnsPort = 53

// maxFrameSize bounds control-channel responses.
const maxFrameSize = 1 << 20

// keyedClient drives a server through its shared-key command channel.
// Zone management commands travel as HMAC-signed JSON frames on the control
// port; record changes are RFC 2136 dynamic updates signed with the same
// key as TSIG.
type keyedClient struct {
	target  Target
	creds   TSIGCredentials
	timeout time.Duration
}

var _ Client = (*keyedClient)(nil)

func newKeyedClient(target Target, timeout time.Duration) *keyedClient {
	return &keyedClient{
		target:  target,
		creds:   *target.TSIG,
		timeout: timeout,
	}
}

type command struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
	Nonce   string         `json:"nonce"`
	Time    int64          `json:"time"`
}

type commandEnvelope struct {
	KeyName string `json:"keyName"`
	Payload []byte `json:"payload"`
	HMAC    []byte `json:"hmac"`
}

type commandResult struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`

	// status command payloads
	Serial    uint32 `json:"serial,omitempty"`
	Loaded    bool   `json:"loaded,omitempty"`
	Version   string `json:"version,omitempty"`
	ZoneCount int    `json:"zoneCount,omitempty"`
}

func (c *keyedClient) sign(payload []byte) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(c.creds.Secret)
	if err != nil {
		return nil, fmt.Errorf("decoding key secret: %w", err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil), nil
}

func (c *keyedClient) send(ctx context.Context, op string, cmd command) error {
	_, err := c.roundTrip(ctx, op, cmd)
	return err
}

func (c *keyedClient) roundTrip(ctx context.Context, op string, cmd command) (commandResult, error) {
	var res commandResult

	cmd.Nonce = uuid.New().String()
	cmd.Time = time.Now().Unix()

	payload, err := json.Marshal(cmd)
	if err != nil {
		return res, Validationf(op, "encoding command: %v", err)
	}
	sig, err := c.sign(payload)
	if err != nil {
		return res, Validationf(op, "%v", err)
	}
	frame, err := json.Marshal(commandEnvelope{
		KeyName: c.creds.KeyName,
		Payload: payload,
		HMAC:    sig,
	})
	if err != nil {
		return res, Validationf(op, "encoding envelope: %v", err)
	}

	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.target.addr())
	if err != nil {
		return res, Transientf(op, "dialing %s: %v", c.target.addr(), err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(frame)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return res, Transientf(op, "writing frame length: %v", err)
	}
	if _, err := conn.Write(frame); err != nil {
		return res, Transientf(op, "writing frame: %v", err)
	}

	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return res, Transientf(op, "reading response length: %v", err)
	}
	respLen := binary.BigEndian.Uint32(lenBuf[:])
	if respLen > maxFrameSize {
		return res, Transientf(op, "response frame too large: %d", respLen)
	}
	respBuf := make([]byte, respLen)
	if _, err := io.ReadFull(conn, respBuf); err != nil {
		return res, Transientf(op, "reading response: %v", err)
	}

	if err := json.Unmarshal(respBuf, &res); err != nil {
		return res, Transientf(op, "decoding response: %v", err)
	}

	switch res.Result {
	case "ok":
		return res, nil
	case "exists":
		return res, AlreadySatisfiedf(op, "%s", res.Message)
	case "unsupported":
		return res, NotSupportedf(op, "%s", res.Message)
	case "invalid":
		return res, Validationf(op, "%s", res.Message)
	default:
		if strings.Contains(strings.ToLower(res.Message), "already exists") {
			return res, AlreadySatisfiedf(op, "%s", res.Message)
		}
		return res, Transientf(op, "command %s failed: %s: %s", cmd.Command, res.Result, res.Message)
	}
}

func (c *keyedClient) AddPrimaryZone(ctx context.Context, zone PrimaryZone) error {
	return c.send(ctx, "add-primary-zone", command{
		Command: "addzone",
		Args: map[string]any{
			"name":          zone.Name,
			"type":          "primary",
			"soa":           zone.SOA,
			"ttl":           zone.DefaultTTL,
			"allowTransfer": zone.AllowTransfer,
			"alsoNotify":    zone.AlsoNotify,
			"glue":          zone.Glue,
		},
	})
}

// UpdatePrimaryZone is not expressible on the command channel: addzone-style
// interfaces cannot reshape an existing zone in place. Callers fall back to
// DeleteZone followed by AddPrimaryZone.
func (c *keyedClient) UpdatePrimaryZone(ctx context.Context, zone PrimaryZone) error {
	return NotSupportedf("update-primary-zone", "keyed transport cannot modify zone %q in place", zone.Name)
}

func (c *keyedClient) AddSecondaryZone(ctx context.Context, zone SecondaryZone) error {
	return c.send(ctx, "add-secondary-zone", command{
		Command: "addzone",
		Args: map[string]any{
			"name":      zone.Name,
			"type":      "secondary",
			"primaries": zone.Primaries,
		},
	})
}

func (c *keyedClient) DeleteZone(ctx context.Context, zoneName string) error {
	return c.send(ctx, "delete-zone", command{
		Command: "delzone",
		Args:    map[string]any{"name": zoneName},
	})
}

func (c *keyedClient) tsigAlgorithm() string {
	alg := strings.ToLower(c.creds.Algorithm)
	if alg == "" {
		alg = "hmac-sha256"
	}
	return dns.Fqdn(alg)
}

func (c *keyedClient) exchange(ctx context.Context, op string, msg *dns.Msg) error {
	keyFQDN := dns.Fqdn(c.creds.KeyName)
	msg.SetTsig(keyFQDN, c.tsigAlgorithm(), 300, time.Now().Unix())

	client := &dns.Client{
		Net:        "tcp",
		TsigSecret: map[string]string{keyFQDN: c.creds.Secret},
		Timeout:    c.timeout,
	}
	addr := fmt.Sprintf("%s:%d", c.target.Host, dnsPort)
	in, _, err := client.ExchangeContext(ctx, msg, addr)
	if err != nil {
		return Transientf(op, "exchange with %s: %v", addr, err)
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeYXRrset, dns.RcodeYXDomain:
		return AlreadySatisfiedf(op, "server %s: %s", addr, dns.RcodeToString[in.Rcode])
	case dns.RcodeNXRrset:
		// removing something already gone
		return AlreadySatisfiedf(op, "server %s: %s", addr, dns.RcodeToString[in.Rcode])
	case dns.RcodeFormatError, dns.RcodeNotZone:
		return Validationf(op, "server %s: %s", addr, dns.RcodeToString[in.Rcode])
	case dns.RcodeNotImplemented:
		return NotSupportedf(op, "server %s: %s", addr, dns.RcodeToString[in.Rcode])
	default:
		return Transientf(op, "server %s: %s", addr, dns.RcodeToString[in.Rcode])
	}
}

func parseRRSet(zoneName string, rr RRSet) ([]dns.RR, error) {
	owner := rr.OwnerName
	if owner == "@" || owner == "" {
		owner = dns.Fqdn(zoneName)
	} else if !strings.HasSuffix(owner, ".") {
		owner = owner + "." + dns.Fqdn(zoneName)
	}

	parsed := make([]dns.RR, 0, len(rr.RData))
	for _, rd := range rr.RData {
		text := fmt.Sprintf("%s %d IN %s %s", owner, rr.TTL, rr.Type, rd)
		record, err := dns.NewRR(text)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", text, err)
		}
		parsed = append(parsed, record)
	}
	return parsed, nil
}

func (c *keyedClient) PushRecord(ctx context.Context, zoneName string, rr RRSet) error {
	const op = "push-record"
	records, err := parseRRSet(zoneName, rr)
	if err != nil {
		return Validationf(op, "%v", err)
	}

	msg := new(dns.Msg)
	msg.SetUpdate(dns.Fqdn(zoneName))
	// replace the whole set so stale rdata does not accumulate
	msg.RemoveRRset(records)
	msg.Insert(records)
	return c.exchange(ctx, op, msg)
}

func (c *keyedClient) RemoveRecord(ctx context.Context, zoneName string, rr RRSet) error {
	const op = "remove-record"
	records, err := parseRRSet(zoneName, rr)
	if err != nil {
		return Validationf(op, "%v", err)
	}

	msg := new(dns.Msg)
	msg.SetUpdate(dns.Fqdn(zoneName))
	msg.RemoveRRset(records)
	return c.exchange(ctx, op, msg)
}

func (c *keyedClient) NotifyZone(ctx context.Context, zoneName string) error {
	msg := new(dns.Msg)
	msg.SetNotify(dns.Fqdn(zoneName))
	return c.exchange(ctx, "notify-zone", msg)
}

func (c *keyedClient) ReloadZone(ctx context.Context, zoneName string) error {
	return c.send(ctx, "reload-zone", command{
		Command: "reload",
		Args:    map[string]any{"name": zoneName},
	})
}

func (c *keyedClient) RetransferZone(ctx context.Context, zoneName string) error {
	return c.send(ctx, "retransfer-zone", command{
		Command: "retransfer",
		Args:    map[string]any{"name": zoneName},
	})
}

func (c *keyedClient) FreezeZone(ctx context.Context, zoneName string) error {
	return c.send(ctx, "freeze-zone", command{
		Command: "freeze",
		Args:    map[string]any{"name": zoneName},
	})
}

func (c *keyedClient) ThawZone(ctx context.Context, zoneName string) error {
	return c.send(ctx, "thaw-zone", command{
		Command: "thaw",
		Args:    map[string]any{"name": zoneName},
	})
}

func (c *keyedClient) ZoneStatus(ctx context.Context, zoneName string) (ZoneState, error) {
	res, err := c.roundTrip(ctx, "zone-status", command{
		Command: "zonestatus",
		Args:    map[string]any{"name": zoneName},
	})
	if err != nil {
		return ZoneState{}, err
	}
	return ZoneState{Name: zoneName, Serial: res.Serial, Loaded: res.Loaded}, nil
}

func (c *keyedClient) ServerStatus(ctx context.Context) (ServerState, error) {
	res, err := c.roundTrip(ctx, "server-status", command{Command: "status"})
	if err != nil {
		return ServerState{}, err
	}
	return ServerState{Version: res.Version, Up: true, ZoneCount: res.ZoneCount}, nil
}
