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

package zonesync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
	zonesync "github.com/zoneops-dev/zoneops/internal/controllers/zone_sync"
	"github.com/zoneops-dev/zoneops/internal/indexes/testhelpers"
	"github.com/zoneops-dev/zoneops/internal/nsproto"
)

type fakeConn struct {
	mu sync.Mutex

	addedPrimary   []nsproto.PrimaryZone
	updatedPrimary []nsproto.PrimaryZone
	addedSecondary []nsproto.SecondaryZone
	deleted        []string
	reloaded       []string
	retransferred  []string
	frozen         []string
	thawed         []string

	zoneState nsproto.ZoneState
	errs      map[string]error
}

func (c *fakeConn) fail(op string) error {
	if c.errs == nil {
		return nil
	}
	return c.errs[op]
}

func (c *fakeConn) AddPrimaryZone(_ context.Context, zone nsproto.PrimaryZone) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("AddPrimaryZone"); err != nil {
		return err
	}
	c.addedPrimary = append(c.addedPrimary, zone)
	return nil
}

func (c *fakeConn) UpdatePrimaryZone(_ context.Context, zone nsproto.PrimaryZone) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("UpdatePrimaryZone"); err != nil {
		return err
	}
	c.updatedPrimary = append(c.updatedPrimary, zone)
	return nil
}

func (c *fakeConn) AddSecondaryZone(_ context.Context, zone nsproto.SecondaryZone) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("AddSecondaryZone"); err != nil {
		return err
	}
	c.addedSecondary = append(c.addedSecondary, zone)
	return nil
}

func (c *fakeConn) DeleteZone(_ context.Context, zoneName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("DeleteZone"); err != nil {
		return err
	}
	c.deleted = append(c.deleted, zoneName)
	return nil
}

func (c *fakeConn) PushRecord(_ context.Context, _ string, _ nsproto.RRSet) error   { return nil }
func (c *fakeConn) RemoveRecord(_ context.Context, _ string, _ nsproto.RRSet) error { return nil }
func (c *fakeConn) NotifyZone(_ context.Context, _ string) error                    { return nil }

func (c *fakeConn) ReloadZone(_ context.Context, zoneName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("ReloadZone"); err != nil {
		return err
	}
	c.reloaded = append(c.reloaded, zoneName)
	return nil
}

func (c *fakeConn) RetransferZone(_ context.Context, zoneName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("RetransferZone"); err != nil {
		return err
	}
	c.retransferred = append(c.retransferred, zoneName)
	return nil
}

func (c *fakeConn) FreezeZone(_ context.Context, zoneName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("FreezeZone"); err != nil {
		return err
	}
	c.frozen = append(c.frozen, zoneName)
	return nil
}

func (c *fakeConn) ThawZone(_ context.Context, zoneName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("ThawZone"); err != nil {
		return err
	}
	c.thawed = append(c.thawed, zoneName)
	return nil
}

func (c *fakeConn) ZoneStatus(_ context.Context, _ string) (nsproto.ZoneState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("ZoneStatus"); err != nil {
		return nsproto.ZoneState{}, err
	}
	return c.zoneState, nil
}

func (c *fakeConn) ServerStatus(_ context.Context) (nsproto.ServerState, error) {
	return nsproto.ServerState{Up: true}, nil
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
		WithStatusSubresource(&v1alpha1.DNSZone{}).
		WithObjects(objs...)
	b = testhelpers.WithZoneByZoneNameIndex(b)
	b = testhelpers.WithZoneByClusterRefIndex(b)
	b = testhelpers.WithInstanceByClusterRefIndex(b)
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
			SOA: v1alpha1.SOARecord{
				PrimaryNS:    "ns1." + zoneName + ".",
				AdminContact: "admin@" + zoneName,
				Serial:       1,
				Refresh:      7200,
				Retry:        900,
				Expire:       1209600,
				NegativeTTL:  300,
			},
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

func getZone(t *testing.T, cl client.Client, name string) *v1alpha1.DNSZone {
	t.Helper()
	zone := &v1alpha1.DNSZone{}
	if err := cl.Get(context.Background(), types.NamespacedName{Namespace: "dns", Name: name}, zone); err != nil {
		t.Fatalf("getting zone %s: %v", name, err)
	}
	return zone
}

func reconcileZone(t *testing.T, cl client.Client, dialer nsproto.Dialer, name string) error {
	t.Helper()
	rec := zonesync.NewReconciler(cl, logr.Discard(), dialer)
	_, err := rec.Reconcile(context.Background(), reconcile.Request{
		NamespacedName: types.NamespacedName{Namespace: "dns", Name: name},
	})
	return err
}

func TestReconcileConfiguresPrimariesAndSecondaries(t *testing.T) {
	zone := createZone("example", "example.org")
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.2")
	s2 := createInstance("s2", v1alpha1.RoleSecondary, "10.0.0.3")

	cl := newFakeClient(zone, p1, s1, s2)
	dialer := newFakeDialer()

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	primary := dialer.conn("10.0.0.1")
	if len(primary.addedPrimary) != 1 {
		t.Fatalf("expected 1 AddPrimaryZone call, got %d", len(primary.addedPrimary))
	}
	pz := primary.addedPrimary[0]
	if pz.Name != "example.org" {
		t.Errorf("expected zone name example.org, got %q", pz.Name)
	}
	wantTransfer := []string{"10.0.0.2", "10.0.0.3"}
	if len(pz.AllowTransfer) != 2 || pz.AllowTransfer[0] != wantTransfer[0] || pz.AllowTransfer[1] != wantTransfer[1] {
		t.Errorf("expected allow-transfer %v, got %v", wantTransfer, pz.AllowTransfer)
	}
	if pz.SOA.AdminContact != "admin.example.org." {
		t.Errorf("expected mailbox-form contact, got %q", pz.SOA.AdminContact)
	}

	for _, host := range []string{"10.0.0.2", "10.0.0.3"} {
		conn := dialer.conn(host)
		if len(conn.addedSecondary) != 1 {
			t.Fatalf("expected 1 AddSecondaryZone call on %s, got %d", host, len(conn.addedSecondary))
		}
		sz := conn.addedSecondary[0]
		if len(sz.Primaries) != 1 || sz.Primaries[0] != "10.0.0.1" {
			t.Errorf("expected primaries [10.0.0.1] on %s, got %v", host, sz.Primaries)
		}
	}

	got := getZone(t, cl, "example")
	if got.Status == nil {
		t.Fatal("expected status to be set")
	}
	if len(got.Status.SecondaryIPs) != 2 {
		t.Errorf("expected secondaryIPs snapshot, got %v", got.Status.SecondaryIPs)
	}
	if len(got.Status.Instances) != 3 {
		t.Fatalf("expected 3 instance entries, got %d", len(got.Status.Instances))
	}
	for _, entry := range got.Status.Instances {
		if entry.State != v1alpha1.InstanceSyncConfigured {
			t.Errorf("instance %s: expected Configured, got %s", entry.Name, entry.State)
		}
	}

	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionTrue || cond.Reason != v1alpha1.ReasonAllInstancesConfigured {
		t.Errorf("unexpected Ready condition: %+v", cond)
	}
}

func TestReconcileNoTargets(t *testing.T) {
	zone := createZone("example", "example.org")
	zone.Spec.ClusterRef = "empty-cluster"

	cl := newFakeClient(zone)
	dialer := newFakeDialer()

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	got := getZone(t, cl, "example")
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionTrue || cond.Reason != v1alpha1.ReasonNoTargets {
		t.Errorf("unexpected Ready condition: %+v", cond)
	}
}

func TestReconcileDuplicateZoneName(t *testing.T) {
	older := createZone("older", "example.org")
	older.CreationTimestamp = metav1.NewTime(time.Now().Add(-time.Hour))
	younger := createZone("younger", "example.org")
	younger.CreationTimestamp = metav1.NewTime(time.Now())

	cl := newFakeClient(older, younger)
	dialer := newFakeDialer()

	if err := reconcileZone(t, cl, dialer, "younger"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	got := getZone(t, cl, "younger")
	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionFalse || cond.Reason != v1alpha1.ReasonDuplicateZoneName {
		t.Errorf("unexpected Ready condition: %+v", cond)
	}
	if len(dialer.conns) != 0 {
		t.Errorf("expected no protocol traffic for a rejected zone, got %d connections", len(dialer.conns))
	}
}

func TestReconcilePrimaryFailureHoldsSnapshot(t *testing.T) {
	zone := createZone("example", "example.org")
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.2")

	cl := newFakeClient(zone, p1, s1)
	dialer := newFakeDialer()
	dialer.conn("10.0.0.1").errs = map[string]error{
		"AddPrimaryZone": nsproto.Transientf("addzone", "connection refused"),
	}

	if err := reconcileZone(t, cl, dialer, "example"); err == nil {
		t.Fatal("expected reconcile error when a primary dispatch fails")
	}

	got := getZone(t, cl, "example")
	if len(got.Status.SecondaryIPs) != 0 {
		t.Errorf("snapshot must not advance on primary failure, got %v", got.Status.SecondaryIPs)
	}
	entry := got.Status.FindInstanceStatus("dns", "p1")
	if entry == nil || entry.State != v1alpha1.InstanceSyncFailed {
		t.Fatalf("expected p1 entry Failed, got %+v", entry)
	}
	if entry.Message == "" {
		t.Error("expected failure message on the instance entry")
	}

	cond := meta.FindStatusCondition(got.Status.Conditions, v1alpha1.ConditionTypeReady)
	if cond == nil || cond.Status != metav1.ConditionFalse || cond.Reason != v1alpha1.ReasonPrimaryFailed {
		t.Errorf("unexpected Ready condition: %+v", cond)
	}
}

func TestReconcileTopologyReshapeFallsBackToRecreate(t *testing.T) {
	zone := createZone("example", "example.org")
	zone.Status = &v1alpha1.DNSZoneStatus{
		SecondaryIPs: []string{"10.0.0.9"},
		Instances: []v1alpha1.InstanceSyncStatus{
			{Name: "p1", Namespace: "dns", Role: v1alpha1.RolePrimary, State: v1alpha1.InstanceSyncConfigured},
		},
	}
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.2")

	cl := newFakeClient(zone, p1, s1)
	dialer := newFakeDialer()
	dialer.conn("10.0.0.1").zoneState = nsproto.ZoneState{Name: "example.org", Loaded: true}
	dialer.conn("10.0.0.1").errs = map[string]error{
		"UpdatePrimaryZone": nsproto.NotSupportedf("modzone", "in-place update not available"),
	}

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	primary := dialer.conn("10.0.0.1")
	if len(primary.deleted) != 1 || primary.deleted[0] != "example.org" {
		t.Fatalf("expected delete-and-recreate fallback, deleted=%v", primary.deleted)
	}
	if len(primary.addedPrimary) != 1 {
		t.Fatalf("expected AddPrimaryZone after delete, got %d calls", len(primary.addedPrimary))
	}

	if len(primary.frozen) != 1 || len(primary.thawed) != 1 {
		t.Errorf("expected the zone to be frozen and thawed around recreation, frozen=%v thawed=%v",
			primary.frozen, primary.thawed)
	}

	got := getZone(t, cl, "example")
	if len(got.Status.SecondaryIPs) != 1 || got.Status.SecondaryIPs[0] != "10.0.0.2" {
		t.Errorf("expected snapshot [10.0.0.2], got %v", got.Status.SecondaryIPs)
	}
}

func TestReconcileReloadsAfterInPlaceReshape(t *testing.T) {
	zone := createZone("example", "example.org")
	zone.Status = &v1alpha1.DNSZoneStatus{
		SecondaryIPs: []string{"10.0.0.9"},
		Instances: []v1alpha1.InstanceSyncStatus{
			{Name: "p1", Namespace: "dns", Role: v1alpha1.RolePrimary, State: v1alpha1.InstanceSyncConfigured},
		},
	}
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.2")

	cl := newFakeClient(zone, p1, s1)
	dialer := newFakeDialer()
	dialer.conn("10.0.0.1").zoneState = nsproto.ZoneState{Name: "example.org", Loaded: true}

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	primary := dialer.conn("10.0.0.1")
	if len(primary.updatedPrimary) != 1 {
		t.Fatalf("expected 1 UpdatePrimaryZone call, got %d", len(primary.updatedPrimary))
	}
	if len(primary.reloaded) != 1 || primary.reloaded[0] != "example.org" {
		t.Errorf("expected reload after in-place reshape, reloaded=%v", primary.reloaded)
	}
	if len(primary.deleted) != 0 {
		t.Errorf("expected no recreation when in-place reshape works, deleted=%v", primary.deleted)
	}
}

func TestReconcileRecreatesZoneRemovedOutOfBandOnReshape(t *testing.T) {
	zone := createZone("example", "example.org")
	zone.Status = &v1alpha1.DNSZoneStatus{
		SecondaryIPs: []string{"10.0.0.9"},
		Instances: []v1alpha1.InstanceSyncStatus{
			{Name: "p1", Namespace: "dns", Role: v1alpha1.RolePrimary, State: v1alpha1.InstanceSyncConfigured},
		},
	}
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.2")

	cl := newFakeClient(zone, p1, s1)
	dialer := newFakeDialer()
	// the reshape probe reports the zone gone
	dialer.conn("10.0.0.1").zoneState = nsproto.ZoneState{Name: "example.org", Loaded: false}

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	primary := dialer.conn("10.0.0.1")
	if len(primary.addedPrimary) != 1 {
		t.Fatalf("expected the zone to be recreated, got %d AddPrimaryZone calls", len(primary.addedPrimary))
	}
	if len(primary.updatedPrimary) != 0 {
		t.Errorf("expected no in-place update of a missing zone, got %d", len(primary.updatedPrimary))
	}
}

func TestReconcileUnchangedPassMakesNoProtocolCalls(t *testing.T) {
	zone := createZone("example", "example.org")
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.2")

	cl := newFakeClient(zone, p1, s1)
	dialer := newFakeDialer()

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	primary := dialer.conn("10.0.0.1")
	secondary := dialer.conn("10.0.0.2")
	if len(primary.addedPrimary) != 1 || len(secondary.addedSecondary) != 1 {
		t.Fatalf("expected the first pass to configure both instances, primary=%d secondary=%d",
			len(primary.addedPrimary), len(secondary.addedSecondary))
	}
	if len(secondary.retransferred) != 1 {
		t.Fatalf("expected a fresh secondary zone to get its first transfer kicked, got %v",
			secondary.retransferred)
	}

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error on the second pass: %v", err)
	}

	if len(primary.addedPrimary) != 1 || len(primary.updatedPrimary) != 0 {
		t.Errorf("expected no primary traffic on an unchanged pass, added=%d updated=%d",
			len(primary.addedPrimary), len(primary.updatedPrimary))
	}
	if len(secondary.addedSecondary) != 1 || len(secondary.retransferred) != 1 {
		t.Errorf("expected no secondary traffic on an unchanged pass, added=%d retransferred=%d",
			len(secondary.addedSecondary), len(secondary.retransferred))
	}
}

func TestReconcileAdoptsExistingSecondaryZone(t *testing.T) {
	zone := createZone("example", "example.org")
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	s1 := createInstance("s1", v1alpha1.RoleSecondary, "10.0.0.2")

	cl := newFakeClient(zone, p1, s1)
	dialer := newFakeDialer()
	dialer.conn("10.0.0.2").errs = map[string]error{
		"AddSecondaryZone": nsproto.AlreadySatisfiedf("addzone", "zone already exists"),
	}

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	secondary := dialer.conn("10.0.0.2")
	if len(secondary.retransferred) != 0 {
		t.Errorf("an already-present zone transfers on its own refresh timer, got forced %v",
			secondary.retransferred)
	}

	got := getZone(t, cl, "example")
	entry := got.Status.FindInstanceStatus("dns", "s1")
	if entry == nil || entry.State != v1alpha1.InstanceSyncConfigured {
		t.Errorf("expected s1 Configured, got %+v", entry)
	}
}

func TestReconcileRemovesZoneFromUnclaimedInstances(t *testing.T) {
	zone := createZone("example", "example.org")
	zone.Status = &v1alpha1.DNSZoneStatus{
		Instances: []v1alpha1.InstanceSyncStatus{
			{Name: "old", Namespace: "dns", Role: v1alpha1.RoleSecondary, State: v1alpha1.InstanceSyncConfigured},
		},
	}
	p1 := createInstance("p1", v1alpha1.RolePrimary, "10.0.0.1")
	old := createInstance("old", v1alpha1.RoleSecondary, "10.0.0.8")
	old.Spec.ClusterRef = "other-cluster"

	cl := newFakeClient(zone, p1, old)
	dialer := newFakeDialer()

	if err := reconcileZone(t, cl, dialer, "example"); err != nil {
		t.Fatalf("unexpected reconcile error: %v", err)
	}

	oldConn := dialer.conn("10.0.0.8")
	if len(oldConn.deleted) != 1 || oldConn.deleted[0] != "example.org" {
		t.Fatalf("expected DeleteZone on the departed instance, got %v", oldConn.deleted)
	}

	got := getZone(t, cl, "example")
	if got.Status.FindInstanceStatus("dns", "old") != nil {
		t.Error("expected the departed instance entry to be dropped")
	}
	if got.Status.FindInstanceStatus("dns", "p1") == nil {
		t.Error("expected the targeted instance to be tracked")
	}
}
