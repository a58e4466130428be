package sps30

// State is the operating mode the driver last put the sensor in.
//
//	Sleeping <-> Idle -> Measuring -> Idle
type State uint8

const (
	Idle State = iota
	Measuring
	Sleeping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Measuring:
		return "measuring"
	case Sleeping:
		return "sleeping"
	}
	return "unknown"
}

// allowed reports whether cmd may be sent in state s.
func (s State) allowed(cmd Command) bool {
	switch cmd {
	case CmdStartMeasurement, CmdSleep:
		return s == Idle
	case CmdStopMeasurement, CmdReadMeasuredValues, CmdStartFanCleaning:
		return s == Measuring
	case CmdWakeup:
		return s != Measuring
	case CmdReset:
		return true
	}
	// The interface is off while sleeping.
	return s != Sleeping
}

// next is the state after cmd completes successfully in state s.
func (s State) next(cmd Command) State {
	switch cmd {
	case CmdStartMeasurement:
		return Measuring
	case CmdStopMeasurement, CmdWakeup, CmdReset:
		return Idle
	case CmdSleep:
		return Sleeping
	}
	return s
}
