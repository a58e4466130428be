package sps30

import "strconv"

// DataWidth selects the encoding of measured values. It is fixed per Device.
type DataWidth uint8

const (
	WidthUnset DataWidth = iota // New substitutes UInt16
	UInt16                      // one big-endian uint16 word per channel
	Float32                     // one big-endian IEEE754 float per channel (two words)
)

func (w DataWidth) String() string {
	switch w {
	case UInt16:
		return "uint16"
	case Float32:
		return "float32"
	case WidthUnset:
		return "unset"
	}
	return "invalid"
}

// selector is the first byte of the start-measurement payload word.
func (w DataWidth) selector() (byte, bool) {
	switch w {
	case Float32:
		return formatFloat32, true
	case UInt16:
		return formatUInt16, true
	}
	return 0, false
}

func (w DataWidth) measuredLen() (int, bool) {
	switch w {
	case Float32:
		return lenMeasuredFloat32, true
	case UInt16:
		return lenMeasuredUInt16, true
	}
	return 0, false
}

// SizeUnit is the unit of the TypicalSize channel: "um" for Float32, "nm"
// for UInt16.
func (w DataWidth) SizeUnit() string {
	if w == Float32 {
		return "um"
	}
	return "nm"
}

// Channel indexes a MeasurementSet. The order is the order of the words on
// the wire.
type Channel uint8

const (
	MassPM1    Channel = iota // µg/m³
	MassPM2_5                 // µg/m³
	MassPM4                   // µg/m³
	MassPM10                  // µg/m³
	CountPM0_5                // #/cm³
	CountPM1                  // #/cm³
	CountPM2_5                // #/cm³
	CountPM4                  // #/cm³
	CountPM10                 // #/cm³
	TypicalSize               // µm (Float32) or nm (UInt16)

	NumChannels
)

var channelNames = [NumChannels]string{
	"mc_pm1.0",
	"mc_pm2.5",
	"mc_pm4.0",
	"mc_pm10.0",
	"pc_pm0.5",
	"pc_pm1.0",
	"pc_pm2.5",
	"pc_pm4.0",
	"pc_pm10.0",
	"typical_size",
}

func (c Channel) String() string {
	if c < NumChannels {
		return channelNames[c]
	}
	return "invalid"
}

// Channels lists every channel in wire order.
func Channels() [NumChannels]Channel {
	var out [NumChannels]Channel
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// UInt16Divisor is the fixed-point divisor applied to each raw UInt16 word.
// Mass and count channels are read as carrying one decimal; typical size is
// whole nm. Sensirion's datasheet instead documents whole µg/m³ and #/cm³
// for UInt16 output, so against such parts Values come out ten times too
// small; MeasurementSet.Raw always holds the undivided words.
var UInt16Divisor = [NumChannels]uint16{
	MassPM1:     10,
	MassPM2_5:   10,
	MassPM4:     10,
	MassPM10:    10,
	CountPM0_5:  10,
	CountPM1:    10,
	CountPM2_5:  10,
	CountPM4:    10,
	CountPM10:   10,
	TypicalSize: 1,
}

// MeasurementSet is one decoded read of the measured values.
type MeasurementSet struct {
	Width  DataWidth
	Values [NumChannels]float32

	// Raw holds the undivided words in UInt16 mode; zero in Float32 mode.
	Raw [NumChannels]uint16
}

// Get returns the scaled value of channel c.
func (m MeasurementSet) Get(c Channel) float32 {
	if c >= NumChannels {
		return 0
	}
	return m.Values[c]
}

// Map returns the values keyed by channel name.
func (m MeasurementSet) Map() map[string]float32 {
	out := make(map[string]float32, NumChannels)
	for i, v := range m.Values {
		out[channelNames[i]] = v
	}
	return out
}

// Status flag names, as used by StatusFlags.Map.
const (
	FlagFanError      = "Fan error"
	FlagFanSpeedError = "Fan speed error"
	FlagLaserError    = "Laser error"
)

// StatusFlags is the decoded device status register.
type StatusFlags struct {
	FanError      bool
	FanSpeedError bool
	LaserError    bool

	Raw uint32
}

func decodeStatus(v uint32) StatusFlags {
	return StatusFlags{
		FanError:      v&statusFan != 0,
		FanSpeedError: v&statusFanSpeed != 0,
		LaserError:    v&statusLaser != 0,
		Raw:           v,
	}
}

// Any reports whether any defined flag is set.
func (s StatusFlags) Any() bool { return s.FanError || s.FanSpeedError || s.LaserError }

func (s StatusFlags) Map() map[string]bool {
	return map[string]bool{
		FlagFanError:      s.FanError,
		FlagFanSpeedError: s.FanSpeedError,
		FlagLaserError:    s.LaserError,
	}
}

type FirmwareVersion struct {
	Major uint8
	Minor uint8
}

func (v FirmwareVersion) String() string {
	return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
}
