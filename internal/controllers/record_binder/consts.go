package recordbinder

import (
	"strings"

	v1alpha1 "github.com/zoneops-dev/zoneops/api/v1alpha1"
)

// ControllerName returns the controller name for one record kind, e.g.
// "record_binder_a_controller".
func ControllerName(kind v1alpha1.RecordKind) string {
	return "record_binder_" + strings.ToLower(string(kind)) + "_controller"
}
