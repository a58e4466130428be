package sps30

import "strconv"

// 7-bit I2C address.
const Address = 0x69

// Command is a 16-bit command/pointer word, sent MSB first.
type Command uint16

// Command set (datasheet, I2C interface).
const (
	CmdStartMeasurement     Command = 0x0010
	CmdStopMeasurement      Command = 0x0104
	CmdReadDataReady        Command = 0x0202
	CmdReadMeasuredValues   Command = 0x0300
	CmdSleep                Command = 0x1001
	CmdWakeup               Command = 0x1103
	CmdStartFanCleaning     Command = 0x5607
	CmdAutoCleaningInterval Command = 0x8004 // read, or write with two payload words
	CmdReadProductType      Command = 0xD002
	CmdReadSerialNumber     Command = 0xD033
	CmdReadFirmwareVersion  Command = 0xD100
	CmdReadStatusRegister   Command = 0xD206
	CmdClearStatusRegister  Command = 0xD210
	CmdReset                Command = 0xD304
)

func (c Command) String() string {
	switch c {
	case CmdStartMeasurement:
		return "start measurement"
	case CmdStopMeasurement:
		return "stop measurement"
	case CmdReadDataReady:
		return "read data-ready flag"
	case CmdReadMeasuredValues:
		return "read measured values"
	case CmdSleep:
		return "sleep"
	case CmdWakeup:
		return "wake-up"
	case CmdStartFanCleaning:
		return "start fan cleaning"
	case CmdAutoCleaningInterval:
		return "auto-cleaning interval"
	case CmdReadProductType:
		return "read product type"
	case CmdReadSerialNumber:
		return "read serial number"
	case CmdReadFirmwareVersion:
		return "read firmware version"
	case CmdReadStatusRegister:
		return "read status register"
	case CmdClearStatusRegister:
		return "clear status register"
	case CmdReset:
		return "reset"
	}
	return "command 0x" + strconv.FormatUint(uint64(c), 16)
}

// Output format selectors, first byte of the start-measurement payload word.
const (
	formatFloat32 = 0x03
	formatUInt16  = 0x05
)

// Response lengths in bytes, checksums included.
const (
	lenDataReady           = 3
	lenMeasuredFloat32     = 60
	lenMeasuredUInt16      = 30
	lenAutoCleaning        = 6
	lenProductType         = 12
	lenSerialNumber        = 48
	lenFirmwareVersion     = 3
	lenFirmwareVersionWide = 6
	lenStatusRegister      = 6
	maxResponseLen         = lenMeasuredFloat32
	maxCommandLen          = 2 + 2*3
	groupLen               = 3
	measurementFieldBytes  = 4
)

// Status register bits (bit 0 = LSB). Only these three are defined.
const (
	statusFanSpeed = 1 << 21 // fan speed out of range
	statusLaser    = 1 << 5  // laser current out of range
	statusFan      = 1 << 4  // fan switched on but measured speed is 0 RPM
)
