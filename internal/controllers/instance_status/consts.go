package instancestatus

import "time"

const (
	// InstanceStatusControllerName is the controller name for the
	// instance_status controller.
	InstanceStatusControllerName = "instance_status_controller"

	// probeInterval is how often a healthy instance is re-probed.
	probeInterval = time.Minute

	// failedProbeInterval retries unreachable instances sooner.
	failedProbeInterval = 15 * time.Second
)
