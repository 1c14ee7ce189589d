package recordsync

import (
	"strings"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

// Finalizer guards record resources so their RRsets are withdrawn from
// name servers before the object disappears.
const Finalizer = "dns.zoneops.dev/record-sync"

// ControllerName returns the controller name for one record kind, e.g.
// "record_sync_a_controller".
func ControllerName(kind v1alpha1.RecordKind) string {
	return "record_sync_" + strings.ToLower(string(kind)) + "_controller"
}
