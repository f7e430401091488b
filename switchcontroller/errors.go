package switchcontroller

import "fmt"

// UnknownSwitchError is returned by ProcessSwitch when name does not
// correspond to a switch that was registered via RegisterSwitch. The
// reference treats this as a fatal framework-invariant violation; this
// port realizes that as a typed, non-recoverable error rather than a
// panic, since it originates from the controller's own public API.
type UnknownSwitchError struct {
	Name string
}

func (e *UnknownSwitchError) Error() string {
	return fmt.Sprintf("switchcontroller: unknown switch %q", e.Name)
}

// MissingHardwareNumberError is returned by RefreshFromHardware when a
// platform's ReadAllStates omits a hardware number a configured switch
// expects.
type MissingHardwareNumberError struct {
	HardwareNumber string
	Platform       string
}

func (e *MissingHardwareNumberError) Error() string {
	return fmt.Sprintf("switchcontroller: missing switch %s in update from hardware platform %s",
		e.HardwareNumber, e.Platform)
}
