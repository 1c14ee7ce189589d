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

package recordsync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	recordsync "github.com/zoneops-dev/zoneops/internal/controllers/record_sync"
	"github.com/zoneops-dev/zoneops/internal/indexes/testhelpers"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
)

type pushCall struct {
	zone string
	rr   nsproto.RRSet
}

type fakeConn struct {
	mu sync.Mutex

	pushed   []pushCall
	removed  []pushCall
	notified []string

	pushErr error
}

func (c *fakeConn) AddPrimaryZone(_ context.Context, _ nsproto.PrimaryZone) error    { return nil }
func (c *fakeConn) UpdatePrimaryZone(_ context.Context, _ nsproto.PrimaryZone) error { return nil }
func (c *fakeConn) AddSecondaryZone(_ context.Context, _ nsproto.SecondaryZone) error {
	return nil
}
func (c *fakeConn) DeleteZone(_ context.Context, _ string) error     { return nil }
func (c *fakeConn) ReloadZone(_ context.Context, _ string) error     { return nil }
func (c *fakeConn) RetransferZone(_ context.Context, _ string) error { return nil }
func (c *fakeConn) FreezeZone(_ context.Context, _ string) error     { return nil }
func (c *fakeConn) ThawZone(_ context.Context, _ string) error       { return nil }

func (c *fakeConn) ZoneStatus(_ context.Context, zoneName string) (nsproto.ZoneState, error) {
	return nsproto.ZoneState{Name: zoneName, Loaded: true}, nil
}

func (c *fakeConn) ServerStatus(_ context.Context) (nsproto.ServerState, error) {
	return nsproto.ServerState{Up: true}, nil
}

func (c *fakeConn) PushRecord(_ context.Context, zoneName string, rr nsproto.RRSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pushErr != nil {
		return c.pushErr
	}
	c.pushed = append(c.pushed, pushCall{zone: zoneName, rr: rr})
	return nil
}

func (c *fakeConn) RemoveRecord(_ context.Context, zoneName string, rr nsproto.RRSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, pushCall{zone: zoneName, rr: rr})
	return nil
}

func (c *fakeConn) NotifyZone(_ context.Context, zoneName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notified = append(c.notified, zoneName)
	return nil
}

type fakeDialer struct {
	mu    sync.Mutex
	conns map[string]*fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: map[string]*fakeConn{}}
}

func (d *fakeDialer) Dial(target nsproto.Target) (nsproto.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, ok := d.conns[target.Host]
	if !ok {
		conn = &fakeConn{}
		d.conns[target.Host] = conn
	}
	return conn, nil
}

func (d *fakeDialer) conn(host string) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn, ok := d.conns[host]
	if !ok {
		conn = &fakeConn{}
		d.conns[host] = conn
	}
	return conn
}

func newFakeClient(objs ...client.Object) client.Client {
	s := scheme.Scheme
	_ = v1alpha1.AddToScheme(s)
	b := fake.NewClientBuilder().
		WithScheme(s).
		WithStatusSubresource(&v1alpha1.DNSZone{}, &v1alpha1.ARecord{}).
		WithObjects(objs...)
	b = testhelpers.WithInstanceByClusterRefIndex(b)
	b = testhelpers.WithRecordByZoneIndexes(b)
	return b.Build()
}

func createZone(name, zoneName string) *v1alpha1.DNSZone {
	return &v1alpha1.DNSZone{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "dns",
		},
		Spec: v1alpha1.DNSZoneSpec{
			ZoneName:   zoneName,
			ClusterRef: "test-cluster",
		},
	}
}

func createInstance(name string, role v1alpha1.InstanceRole, host string) *v1alpha1.DNSInstance {
	return &v1alpha1.DNSInstance{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "dns",
		},
		Spec: v1alpha1.DNSInstanceSpec{
			Role:       role,
			ClusterRef: "test-cluster",
			Endpoint: v1alpha1.InstanceEndpoint{
				Host:      host,
				Port:      8053,
				Transport: v1alpha1.TransportHTTP,
			},
		},
	}
}

func createBoundARecord(name, zoneName string) *v1alpha1.ARecord {
	return &v1alpha1.ARecord{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "dns",
		},
		Spec: v1alpha1.ARecordSpec{
			Name:        "www",
			IPv4Address: "192.0.2.10",
		},
		Status: &v1alpha1.RecordStatus{
			ZoneRef: &v1alpha1.ZoneReference{
				Name:      "example",
				Namespace: "dns",
				ZoneName:  zoneName,
			},
		},
	}
}

func reconcileRecord(t *testing.T, cl client.Client, dialer nsproto.Dialer, name string) error {
	t.Helper()
	rec := recordsync.NewReconciler(cl, logr.Discard(), v1alpha1.RecordKindA, dialer)
	_, err := rec.Reconcile(context.Background(), reconcile.Request{
		NamespacedName: types.NamespacedName{Namespace: "dns", Name: name},
	})
	return err
}

func getARecord(t *testing.T, cl client.Client, name string) *v1alpha1.ARecord {
	t.Helper()
	rec := &v1alpha1.ARecord{}
	if err := cl.Get(context.Background(), types.NamespacedName{Namespace: "dns", Name: name}, rec); err != nil {
		t.Fatalf("getting record %s: %v", name, err)
	}
	return rec
}

func TestPushesBoundRecordToPrimaries(t *testing.T) {
	zone := createZone("example", "example.org")
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	p2 := createInstance("p2", v1alpha1.RolePrimary, "10.0.0.2")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.3")
	record := createBoundARecord("www", "example.org")

	cl := newFakeClient(zone, p1, p2, s1, record)
	dialer := newFakeDialer()

	if err := reconcileRecord(t, cl, dialer, "www"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	for _, host := range []string{"10.0.0.1", "10.0.0.2"} {
		conn := dialer.conn(host)
		if len(conn.pushed) != 1 {
			t.Fatalf("expected 1 push on %s, got %d", host, len(conn.pushed))
		}
		call := conn.pushed[0]
		if call.zone != "example.org" || call.rr.Type != "A" || call.rr.OwnerName != "www" {
			t.Errorf("unexpected push on %s: %+v", host, call)
		}
		if len(call.rr.RData) != 1 || call.rr.RData[0] != "192.0.2.10" {
			t.Errorf("unexpected rdata on %s: %v", host, call.rr.RData)
		}
		if len(conn.notified) != 1 {
			t.Errorf("expected notify after push on %s", host)
		}
	}
	if len(dialer.conn("10.0.0.3").pushed) != 0 {
		t.Error("secondaries must converge via transfer, not direct pushes")
	}

	got := getARecord(t, cl, "www")
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionTrue || cond.Reason != v1alpha1.ReasonRecordPushed {
		t.Errorf("unexpected Ready condition: %+v", cond)
	}

	gotZone := &v1alpha1.DNSZone{}
	if err := cl.Get(context.Background(), types.NamespacedName{Namespace: "dns", Name: "example"}, gotZone); err != nil {
		t.Fatalf("getting zone: %v", err)
	}
	if gotZone.Status == nil || !gotZone.Status.HasBoundRecord(v1alpha1.RecordKindA, "www") {
		t.Error("expected the zone inventory to list the record")
	}
}

func TestPushFailureSetsCondition(t *testing.T) {
	zone := createZone("example", "example.org")
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	record := createBoundARecord("www", "example.org")

	cl := newFakeClient(zone, p1, record)
	dialer := newFakeDialer()
	dialer.conn("10.0.0.1").pushErr = nsproto.Transientf("update", "connection refused")

	if err := reconcileRecord(t, cl, dialer, "www"); err == nil {
		t.Fatal("expected reconcile error when every push fails")
	}

	got := getARecord(t, cl, "www")
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionFalse || cond.Reason != v1alpha1.ReasonRecordPushFailed {
		t.Errorf("unexpected Ready condition: %+v", cond)
	}
}

func TestPartialPushFailureKeepsRecordReady(t *testing.T) {
	zone := createZone("example", "example.org")
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	p2 := createInstance("p2", v1alpha1.RolePrimary, "10.0.0.2")
	record := createBoundARecord("www", "example.org")

	cl := newFakeClient(zone, p1, p2, record)
	dialer := newFakeDialer()
	dialer.conn("10.0.0.2").pushErr = nsproto.Transientf("update", "connection refused")

	if err := reconcileRecord(t, cl, dialer, "www"); err == nil {
		t.Fatal("expected reconcile error so the failed endpoint is retried")
	}

	if len(dialer.conn("10.0.0.1").pushed) != 1 {
		t.Fatal("expected the healthy primary to receive the push")
	}

	got := getARecord(t, cl, "www")
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionTrue || cond.Reason != v1alpha1.ReasonRecordPushed {
		t.Fatalf("record serving from one endpoint must stay Ready, got %+v", cond)
	}
	if cond.Message != "record pushed to 1 endpoints" {
		t.Errorf("unexpected condition message: %q", cond.Message)
	}

	gotZone := &v1alpha1.DNSZone{}
	if err := cl.Get(context.Background(), types.NamespacedName{Namespace: "dns", Name: "example"}, gotZone); err != nil {
		t.Fatalf("getting zone: %v", err)
	}
	if gotZone.Status == nil || !gotZone.Status.HasBoundRecord(v1alpha1.RecordKindA, "www") {
		t.Error("expected the zone inventory to list the record")
	}
}

func TestMissingZoneReference(t *testing.T) {
	record := createBoundARecord("www", "example.org")

	cl := newFakeClient(record)
	dialer := newFakeDialer()

	if err := reconcileRecord(t, cl, dialer, "www"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	got := getARecord(t, cl, "www")
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionFalse || cond.Reason != v1alpha1.ReasonZoneReferenceNotFound {
		t.Errorf("unexpected Ready condition: %+v", cond)
	}
}

func TestUnboundRecordIsWithdrawnFromOldZone(t *testing.T) {
	zone := createZone("example", "example.org")
	zone.Status = &v1alpha1.DNSZoneStatus{
		Records: []v1alpha1.BoundRecord{{Kind: v1alpha1.RecordKindA, Name: "www"}},
	}
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	record := createBoundARecord("www", "example.org")
	record.Status.ZoneRef = nil

	cl := newFakeClient(zone, p1, record)
	dialer := newFakeDialer()

	if err := reconcileRecord(t, cl, dialer, "www"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	conn := dialer.conn("10.0.0.1")
	if len(conn.removed) != 1 || conn.removed[0].zone != "example.org" {
		t.Fatalf("expected the record to be withdrawn, removed=%v", conn.removed)
	}

	gotZone := &v1alpha1.DNSZone{}
	if err := cl.Get(context.Background(), types.NamespacedName{Namespace: "dns", Name: "example"}, gotZone); err != nil {
		t.Fatalf("getting zone: %v", err)
	}
	if gotZone.Status.HasBoundRecord(v1alpha1.RecordKindA, "www") {
		t.Error("expected the inventory entry to be dropped")
	}
}

func TestDeletionWithdrawsAndReleasesFinalizer(t *testing.T) {
	zone := createZone("example", "example.org")
	zone.Status = &v1alpha1.DNSZoneStatus{
		Records: []v1alpha1.BoundRecord{{Kind: v1alpha1.RecordKindA, Name: "www"}},
	}
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")

	record := createBoundARecord("www", "example.org")
	now := metav1.NewTime(time.Now())
	record.DeletionTimestamp = &now
	record.Finalizers = []string{recordsync.Finalizer}

	cl := newFakeClient(zone, p1, record)
	dialer := newFakeDialer()

	if err := reconcileRecord(t, cl, dialer, "www"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	conn := dialer.conn("10.0.0.1")
	if len(conn.removed) != 1 {
		t.Fatalf("expected the record to be withdrawn before release, removed=%v", conn.removed)
	}

	err := cl.Get(context.Background(), types.NamespacedName{Namespace: "dns", Name: "www"}, &v1alpha1.ARecord{})
	if !errors.IsNotFound(err) {
		t.Errorf("expected the record to be gone after finalizer release, got %v", err)
	}
}
