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
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

const testKeySecret = "c2VjcmV0LWtleS1tYXRlcmlhbA==" // base64("secret-key-material")

// commandServer accepts framed envelopes, verifies the HMAC against
// testKeySecret, and answers each command with a canned result.
type commandServer struct {
	t       *testing.T
	ln      net.Listener
	results map[string]commandResult

	mu   sync.Mutex
	seen []command
}

func newCommandServer(t *testing.T, results map[string]commandResult) *commandServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &commandServer{t: t, ln: ln, results: results}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *commandServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.handle(conn)
	}
}

func (s *commandServer) handle(conn net.Conn) {
	defer conn.Close()

	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return
	}
	frame := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(conn, frame); err != nil {
		return
	}

	var env commandEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.t.Errorf("decoding envelope: %v", err)
		return
	}
	secret, _ := base64.StdEncoding.DecodeString(testKeySecret)
	mac := hmac.New(sha256.New, secret)
	mac.Write(env.Payload)
	if !hmac.Equal(mac.Sum(nil), env.HMAC) {
		s.t.Error("envelope HMAC does not verify")
	}

	var cmd command
	if err := json.Unmarshal(env.Payload, &cmd); err != nil {
		s.t.Errorf("decoding command: %v", err)
		return
	}
	s.mu.Lock()
	s.seen = append(s.seen, cmd)
	s.mu.Unlock()

	res, ok := s.results[cmd.Command]
	if !ok {
		res = commandResult{Result: "ok"}
	}
	out, _ := json.Marshal(res)
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(out)))
	_, _ = conn.Write(lenBuf[:])
	_, _ = conn.Write(out)
}

func (s *commandServer) client(t *testing.T) *keyedClient {
	t.Helper()
	_, portStr, err := net.SplitHostPort(s.ln.Addr().String())
	if err != nil {
		t.Fatalf("splitting listener address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return newKeyedClient(Target{
		Host:      "127.0.0.1",
		Port:      int32(port),
		Transport: v1alpha1.TransportKeyed,
		TSIG: &TSIGCredentials{
			KeyName:   "zoneops-key",
			Algorithm: "hmac-sha256",
			Secret:    testKeySecret,
		},
	}, 5*time.Second)
}

func (s *commandServer) commands() []command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]command(nil), s.seen...)
}

func TestKeyedClientAddPrimaryZone(t *testing.T) {
	srv := newCommandServer(t, nil)
	cl := srv.client(t)

	err := cl.AddPrimaryZone(context.Background(), PrimaryZone{
		Name: "example.com",
		SOA: SOAParameters{
			PrimaryNS:    "ns1.example.com.",
			AdminContact: "admin.example.com.",
			Serial:       2024010101,
		},
		AllowTransfer: []string{"10.0.0.2"},
	})
	if err != nil {
		t.Fatalf("AddPrimaryZone: %v", err)
	}

	cmds := srv.commands()
	if len(cmds) != 1 || cmds[0].Command != "addzone" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
	if cmds[0].Args["name"] != "example.com" || cmds[0].Args["type"] != "primary" {
		t.Fatalf("unexpected args: %+v", cmds[0].Args)
	}
	if cmds[0].Nonce == "" || cmds[0].Time == 0 {
		t.Fatal("nonce and timestamp must be set")
	}
}

func TestKeyedClientExistingZoneIsAlreadySatisfied(t *testing.T) {
	srv := newCommandServer(t, map[string]commandResult{
		"addzone": {Result: "exists", Message: "zone example.com already exists"},
	})
	cl := srv.client(t)

	err := cl.AddSecondaryZone(context.Background(), SecondaryZone{
		Name:      "example.com",
		Primaries: []string{"10.0.0.1"},
	})
	if !IsAlreadySatisfied(err) {
		t.Fatalf("want already-satisfied, got %v", err)
	}
}

func TestKeyedClientServerFailureIsTransient(t *testing.T) {
	srv := newCommandServer(t, map[string]commandResult{
		"delzone": {Result: "error", Message: "journal rollforward failed"},
	})
	cl := srv.client(t)

	err := cl.DeleteZone(context.Background(), "example.com")
	if !IsTransient(err) {
		t.Fatalf("want transient, got %v", err)
	}
}

func TestKeyedClientZoneStatus(t *testing.T) {
	srv := newCommandServer(t, map[string]commandResult{
		"zonestatus": {Result: "ok", Serial: 2024010105, Loaded: true},
	})
	cl := srv.client(t)

	state, err := cl.ZoneStatus(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("ZoneStatus: %v", err)
	}
	if state.Name != "example.com" || state.Serial != 2024010105 || !state.Loaded {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestKeyedClientServerStatus(t *testing.T) {
	srv := newCommandServer(t, map[string]commandResult{
		"status": {Result: "ok", Version: "9.18.24", ZoneCount: 7},
	})
	cl := srv.client(t)

	state, err := cl.ServerStatus(context.Background())
	if err != nil {
		t.Fatalf("ServerStatus: %v", err)
	}
	if !state.Up || state.Version != "9.18.24" || state.ZoneCount != 7 {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestKeyedClientUpdateIsNotSupported(t *testing.T) {
	srv := newCommandServer(t, nil)
	cl := srv.client(t)

	err := cl.UpdatePrimaryZone(context.Background(), PrimaryZone{Name: "example.com"})
	if !IsNotSupported(err) {
		t.Fatalf("want not-supported, got %v", err)
	}
	if cmds := srv.commands(); len(cmds) != 0 {
		t.Fatalf("no commands expected on the wire, got %+v", cmds)
	}
}

func TestKeyedClientUnreachableServerIsTransient(t *testing.T) {
	cl := newKeyedClient(Target{
		Host:      "127.0.0.1",
		Port:      1, // nothing listens here
		Transport: v1alpha1.TransportKeyed,
		TSIG: &TSIGCredentials{
			KeyName: "zoneops-key",
			Secret:  testKeySecret,
		},
	}, 500*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cl.DeleteZone(ctx, "example.com"); !IsTransient(err) {
		t.Fatalf("want transient, got %v", err)
	}
}
