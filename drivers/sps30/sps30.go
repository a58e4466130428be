// Package sps30 provides a driver for the Sensirion SPS30 particulate matter
// sensor over I2C.
//
// Each operation is one synchronous request/response: write the command,
// optionally wait Config.ReadDelay, read the fixed-length reply, verify the
// checksum of every word and decode. Nothing is retried and no partial
// result is returned. Polling the data-ready flag before ReadData is the
// caller's job:
//
//	d := sps30.New(bus, sps30.Config{Width: sps30.Float32})
//	_ = d.StartMeasurement()
//	for ready, _ := d.ReadDataReady(); !ready; ready, _ = d.ReadDataReady() {
//		time.Sleep(100 * time.Millisecond)
//	}
//	m, err := d.ReadData()
//
// A Device is not safe for concurrent use; serialise whole calls.
//
// The frame codec is exposed separately as Codec for use without a bus.
package sps30

import (
	"time"

	"tinygo.org/x/drivers"
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x69 if zero.
	Address uint16
	// Width defaults to UInt16.
	Width DataWidth
	// Checksum defaults to SumComplement.
	Checksum Checksum
	// ReadDelay is slept between writing a read command and reading the
	// response. Default 0: timing is left to the transport or the caller.
	ReadDelay time.Duration
	// InitialState is the state assumed at construction. Default Idle.
	InitialState State
}

// Device wraps an I2C connection to an SPS30.
type Device struct {
	bus   drivers.I2C
	addr  uint16
	codec Codec
	delay time.Duration
	state State

	// Fixed buffers to avoid per-call heap allocations on the bus path.
	w [maxCommandLen]byte
	r [maxResponseLen]byte
}

// New creates a Device. The I2C bus must already be configured. It does not
// touch the device.
func New(bus drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = Address
	}
	return &Device{
		bus:   bus,
		addr:  addr,
		codec: NewCodec(cfg.Width, cfg.Checksum),
		delay: cfg.ReadDelay,
		state: cfg.InitialState,
	}
}

func (d *Device) Address() uint16  { return d.addr }
func (d *Device) Width() DataWidth { return d.codec.Width }
func (d *Device) State() State     { return d.state }
func (d *Device) Codec() Codec     { return d.codec }

// ---------------- Bus helpers ----------------

func (d *Device) check(cmd Command) error {
	if !d.state.allowed(cmd) {
		return &StateError{Cmd: cmd, From: d.state}
	}
	return nil
}

func (d *Device) send(cmd Command, words ...uint16) error {
	if err := d.check(cmd); err != nil {
		return err
	}
	if err := d.bus.Tx(d.addr, d.codec.AppendCommand(d.w[:0], cmd, words...), nil); err != nil {
		return err
	}
	d.state = d.state.next(cmd)
	return nil
}

// query writes cmd and reads its response into the shared read buffer.
func (d *Device) query(cmd Command) ([]byte, error) {
	if err := d.check(cmd); err != nil {
		return nil, err
	}
	n, err := d.codec.ResponseLen(cmd)
	if err != nil {
		return nil, err
	}
	if err := d.bus.Tx(d.addr, d.codec.AppendCommand(d.w[:0], cmd), nil); err != nil {
		return nil, err
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	buf := d.r[:n]
	if err := d.bus.Tx(d.addr, nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ---------------- Measurement ----------------

// StartMeasurement enters measurement mode with the configured output format.
func (d *Device) StartMeasurement() error {
	w, err := d.codec.StartMeasurementWord()
	if err != nil {
		return err
	}
	return d.send(CmdStartMeasurement, w)
}

func (d *Device) StopMeasurement() error { return d.send(CmdStopMeasurement) }

// ReadDataReady reports whether a new measurement can be read.
func (d *Device) ReadDataReady() (bool, error) {
	raw, err := d.query(CmdReadDataReady)
	if err != nil {
		return false, err
	}
	return d.codec.DataReady(raw)
}

// ReadData reads one set of measured values. Only valid while measuring.
func (d *Device) ReadData() (MeasurementSet, error) {
	raw, err := d.query(CmdReadMeasuredValues)
	if err != nil {
		return MeasurementSet{}, err
	}
	return d.codec.Measurement(raw)
}

// ---------------- Status & identification ----------------

func (d *Device) ReadStatus() (StatusFlags, error) {
	raw, err := d.query(CmdReadStatusRegister)
	if err != nil {
		return StatusFlags{}, err
	}
	return d.codec.Status(raw)
}

func (d *Device) ClearStatus() error { return d.send(CmdClearStatusRegister) }

func (d *Device) ReadFirmwareVersion() (FirmwareVersion, error) {
	raw, err := d.query(CmdReadFirmwareVersion)
	if err != nil {
		return FirmwareVersion{}, err
	}
	return d.codec.FirmwareVersion(raw)
}

// ReadProductType returns the product type string ("00080000" on current
// parts). Not verified against hardware.
func (d *Device) ReadProductType() (string, error) {
	raw, err := d.query(CmdReadProductType)
	if err != nil {
		return "", err
	}
	return d.codec.ASCII(CmdReadProductType, raw)
}

// ReadSerialNumber returns the serial number string. Not verified against
// hardware.
func (d *Device) ReadSerialNumber() (string, error) {
	raw, err := d.query(CmdReadSerialNumber)
	if err != nil {
		return "", err
	}
	return d.codec.ASCII(CmdReadSerialNumber, raw)
}

// ---------------- Fan cleaning ----------------

// ReadAutoCleaningInterval returns the interval in seconds.
func (d *Device) ReadAutoCleaningInterval() (uint32, error) {
	raw, err := d.query(CmdAutoCleaningInterval)
	if err != nil {
		return 0, err
	}
	return d.codec.AutoCleaningInterval(raw)
}

// WriteAutoCleaningInterval sets the interval in seconds. 0 disables
// automatic cleaning.
func (d *Device) WriteAutoCleaningInterval(seconds uint32) error {
	return d.send(CmdAutoCleaningInterval, uint16(seconds>>16), uint16(seconds))
}

// StartFanCleaning runs the fan at maximum speed for about 10 s. Only valid
// while measuring.
func (d *Device) StartFanCleaning() error { return d.send(CmdStartFanCleaning) }

// ---------------- Power ----------------

// Sleep enters low-power mode. Only valid while idle.
func (d *Device) Sleep() error { return d.send(CmdSleep) }

// Wakeup leaves sleep mode. The command goes out twice: the first write only
// re-enables the I2C interface and is usually not acknowledged, so its error
// is ignored.
//
// From Idle the driver cannot know whether the sensor really is awake (a new
// process talking to a sensor an earlier one put to sleep starts out Idle).
// Both pulses are still sent and their errors ignored, since an awake SPS30
// only rejects the command; the next transaction reports a missing device.
func (d *Device) Wakeup() error {
	if err := d.check(CmdWakeup); err != nil {
		return err
	}
	cmd := d.codec.AppendCommand(d.w[:0], CmdWakeup)
	_ = d.bus.Tx(d.addr, cmd, nil)
	if d.state == Idle {
		_ = d.bus.Tx(d.addr, cmd, nil)
		return nil
	}
	return d.send(CmdWakeup)
}

// Reset performs a soft reset. The device is idle afterwards.
func (d *Device) Reset() error { return d.send(CmdReset) }
