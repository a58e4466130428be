package sps30

import (
	"encoding/binary"
	"math"
)

// Codec encodes command frames and validates and decodes response frames
// for one data width and checksum algorithm. It holds no state between calls
// and is safe to copy.
//
// Every word on the wire, in either direction, is followed by its checksum:
//
//	[hi][lo][crc] [hi][lo][crc] ...
type Codec struct {
	Width    DataWidth
	Checksum Checksum
}

// NewCodec returns a Codec, substituting UInt16 and SumComplement for zero values.
func NewCodec(width DataWidth, sum Checksum) Codec {
	if width == WidthUnset {
		width = UInt16
	}
	if sum == nil {
		sum = SumComplement
	}
	return Codec{Width: width, Checksum: sum}
}

// AppendCommand appends cmd (two bytes, MSB first) and then each payload
// word followed by its checksum.
func (c Codec) AppendCommand(dst []byte, cmd Command, words ...uint16) []byte {
	dst = append(dst, byte(cmd>>8), byte(cmd))
	for _, w := range words {
		hi, lo := byte(w>>8), byte(w)
		dst = append(dst, hi, lo, c.Checksum(hi, lo))
	}
	return dst
}

// Command returns the bytes handed to the transport for cmd.
func (c Codec) Command(cmd Command, words ...uint16) []byte {
	return c.AppendCommand(make([]byte, 0, 2+3*len(words)), cmd, words...)
}

// Frame returns the complete write frame as seen on the bus: address byte
// (7-bit address, R/W bit clear) followed by Command(cmd, words...).
func (c Codec) Frame(addr uint16, cmd Command, words ...uint16) []byte {
	dst := make([]byte, 0, 3+3*len(words))
	dst = append(dst, byte(addr<<1))
	return c.AppendCommand(dst, cmd, words...)
}

// StartMeasurementWord is the payload word selecting the output format.
func (c Codec) StartMeasurementWord() (uint16, error) {
	sel, ok := c.Width.selector()
	if !ok {
		return 0, &UnsupportedDataWidthError{Cmd: CmdStartMeasurement, Width: c.Width}
	}
	return uint16(sel) << 8, nil
}

// StartMeasurement returns the start-measurement command for c.Width.
func (c Codec) StartMeasurement() ([]byte, error) {
	w, err := c.StartMeasurementWord()
	if err != nil {
		return nil, err
	}
	return c.Command(CmdStartMeasurement, w), nil
}

// WriteAutoCleaningInterval returns the command setting the interval in seconds.
func (c Codec) WriteAutoCleaningInterval(seconds uint32) []byte {
	return c.Command(CmdAutoCleaningInterval, uint16(seconds>>16), uint16(seconds))
}

// ResponseLen is the number of bytes cmd returns, checksums included. Zero
// means the command is write-only.
func (c Codec) ResponseLen(cmd Command) (int, error) {
	switch cmd {
	case CmdReadDataReady:
		return lenDataReady, nil
	case CmdReadMeasuredValues:
		n, ok := c.Width.measuredLen()
		if !ok {
			return 0, &UnsupportedDataWidthError{Cmd: cmd, Width: c.Width}
		}
		return n, nil
	case CmdAutoCleaningInterval:
		return lenAutoCleaning, nil
	case CmdReadProductType:
		return lenProductType, nil
	case CmdReadSerialNumber:
		return lenSerialNumber, nil
	case CmdReadFirmwareVersion:
		return lenFirmwareVersion, nil
	case CmdReadStatusRegister:
		return lenStatusRegister, nil
	}
	return 0, nil
}

// Payload validates raw as the response to cmd and returns the data bytes
// with checksums removed. The length check runs before any checksum, and
// the first failing group aborts the parse.
func (c Codec) Payload(cmd Command, raw []byte) ([]byte, error) {
	want, err := c.ResponseLen(cmd)
	if err != nil {
		return nil, err
	}
	if cmd == CmdReadFirmwareVersion && len(raw) == lenFirmwareVersionWide {
		want = lenFirmwareVersionWide
	}
	if len(raw)%groupLen != 0 || len(raw) != want {
		return nil, &FrameLengthError{Cmd: cmd, Got: len(raw), Want: want}
	}
	out := make([]byte, 0, len(raw)/groupLen*2)
	for i := 0; i < len(raw); i += groupLen {
		hi, lo, sum := raw[i], raw[i+1], raw[i+2]
		if calc := c.Checksum(hi, lo); calc != sum {
			return nil, &ChecksumMismatchError{Cmd: cmd, Group: i / groupLen, Got: sum, Want: calc}
		}
		out = append(out, hi, lo)
	}
	return out, nil
}

// DataReady decodes the data-ready flag.
func (c Codec) DataReady(raw []byte) (bool, error) {
	p, err := c.Payload(CmdReadDataReady, raw)
	if err != nil {
		return false, err
	}
	return p[len(p)-1] != 0, nil
}

// Measurement decodes the measured values in channel order.
func (c Codec) Measurement(raw []byte) (MeasurementSet, error) {
	p, err := c.Payload(CmdReadMeasuredValues, raw)
	if err != nil {
		return MeasurementSet{}, err
	}
	m := MeasurementSet{Width: c.Width}
	switch c.Width {
	case Float32:
		for i := range m.Values {
			bits := binary.BigEndian.Uint32(p[i*measurementFieldBytes:])
			m.Values[i] = math.Float32frombits(bits)
		}
	case UInt16:
		for i := range m.Values {
			v := binary.BigEndian.Uint16(p[i*2:])
			m.Raw[i] = v
			m.Values[i] = float32(v) / float32(UInt16Divisor[i])
		}
	default:
		return MeasurementSet{}, &UnsupportedDataWidthError{Cmd: CmdReadMeasuredValues, Width: c.Width}
	}
	return m, nil
}

// Status decodes the status register.
func (c Codec) Status(raw []byte) (StatusFlags, error) {
	p, err := c.Payload(CmdReadStatusRegister, raw)
	if err != nil {
		return StatusFlags{}, err
	}
	return decodeStatus(binary.BigEndian.Uint32(p)), nil
}

// FirmwareVersion decodes either layout: one word [major][minor], or two
// words each carrying one number in its low byte.
func (c Codec) FirmwareVersion(raw []byte) (FirmwareVersion, error) {
	p, err := c.Payload(CmdReadFirmwareVersion, raw)
	if err != nil {
		return FirmwareVersion{}, err
	}
	if len(p) == 4 {
		return FirmwareVersion{Major: p[1], Minor: p[3]}, nil
	}
	return FirmwareVersion{Major: p[0], Minor: p[1]}, nil
}

// AutoCleaningInterval decodes the interval in seconds.
func (c Codec) AutoCleaningInterval(raw []byte) (uint32, error) {
	p, err := c.Payload(CmdAutoCleaningInterval, raw)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

// ASCII decodes a null-terminated string response (product type, serial
// number).
func (c Codec) ASCII(cmd Command, raw []byte) (string, error) {
	p, err := c.Payload(cmd, raw)
	if err != nil {
		return "", err
	}
	for i, b := range p {
		if b == 0 {
			return string(p[:i]), nil
		}
	}
	return string(p), nil
}

// Parse validates and decodes raw as the response to cmd. The dynamic type
// of the result is bool, MeasurementSet, StatusFlags, FirmwareVersion, string
// or uint32, according to cmd. Write-only commands have nothing to parse and
// return a FrameLengthError for any non-empty buffer.
func (c Codec) Parse(cmd Command, raw []byte) (any, error) {
	switch cmd {
	case CmdReadDataReady:
		return c.DataReady(raw)
	case CmdReadMeasuredValues:
		return c.Measurement(raw)
	case CmdReadStatusRegister:
		return c.Status(raw)
	case CmdReadFirmwareVersion:
		return c.FirmwareVersion(raw)
	case CmdReadProductType, CmdReadSerialNumber:
		return c.ASCII(cmd, raw)
	case CmdAutoCleaningInterval:
		return c.AutoCleaningInterval(raw)
	}
	if len(raw) != 0 {
		return nil, &FrameLengthError{Cmd: cmd, Got: len(raw), Want: 0}
	}
	return nil, nil
}
