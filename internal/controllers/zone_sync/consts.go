package zonesync

const (
	// ZoneSyncControllerName is the controller name for the zone_sync controller.
	ZoneSyncControllerName = "zone_sync_controller"

	// dispatchParallelism bounds concurrent per-instance protocol calls
	// inside one reconcile pass.
	dispatchParallelism = 4
)
