// Package sps30dev runs the measurement loop for one SPS30 on a host.
//
// The Monitor is the only owner of its sensor: every request/response cycle
// runs under one mutex, so Info may be called while Run is polling.
package sps30dev

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"sps30-go/drivers/sps30"
	"sps30-go/errcode"
)

// Sensor is the part of *sps30.Device the monitor drives.
type Sensor interface {
	State() sps30.State
	Width() sps30.DataWidth
	StartMeasurement() error
	StopMeasurement() error
	ReadDataReady() (bool, error)
	ReadData() (sps30.MeasurementSet, error)
	ReadStatus() (sps30.StatusFlags, error)
	ReadFirmwareVersion() (sps30.FirmwareVersion, error)
	ReadProductType() (string, error)
	ReadSerialNumber() (string, error)
	ReadAutoCleaningInterval() (uint32, error)
	WriteAutoCleaningInterval(seconds uint32) error
	Sleep() error
	Wakeup() error
}

var _ Sensor = (*sps30.Device)(nil)

// Sink receives what the monitor reads. It must not block.
type Sink interface {
	Publish(set sps30.MeasurementSet, ts float64)
	Fail(code errcode.Code)
	SetStatus(s sps30.StatusFlags)
}

type Options struct {
	// PollInterval between data-ready checks. Default 1 s.
	PollInterval time.Duration
	// AutoCleanInterval in seconds is written before measuring starts.
	// Negative leaves the device setting alone; values above 32 bits are
	// clamped to the largest interval the device accepts.
	AutoCleanInterval int64
	// StatusEvery reads the status register after every N measurements.
	// Default 60; negative disables.
	StatusEvery int
	// SleepOnExit puts the sensor to sleep when Run returns.
	SleepOnExit bool
}

// DeviceInfo is the identification and housekeeping state of the sensor.
type DeviceInfo struct {
	Firmware          sps30.FirmwareVersion
	ProductType       string
	SerialNumber      string
	AutoCleanInterval uint32 // seconds
	Status            sps30.StatusFlags
}

type Monitor struct {
	mu   sync.Mutex
	dev  Sensor
	opts Options
	log  *zap.Logger
	sink Sink
	now  func() time.Time

	woken    bool
	reads    int
	last     sps30.MeasurementSet
	haveLast bool
}

func New(dev Sensor, opts Options, log *zap.Logger, sink Sink) *Monitor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.StatusEvery == 0 {
		opts.StatusEvery = 60
	}
	if opts.AutoCleanInterval > math.MaxUint32 {
		opts.AutoCleanInterval = math.MaxUint32
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{dev: dev, opts: opts, log: log, sink: sink, now: time.Now}
}

// Last returns the most recent measurement, if any.
func (m *Monitor) Last() (sps30.MeasurementSet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.haveLast
}

// Info reads identification, cleaning interval and status. The sensor must
// be awake.
func (m *Monitor) Info(ctx context.Context) (DeviceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		info DeviceInfo
		err  error
	)
	steps := []struct {
		op string
		fn func() error
	}{
		{"read firmware version", func() error { info.Firmware, err = m.dev.ReadFirmwareVersion(); return err }},
		{"read product type", func() error { info.ProductType, err = m.dev.ReadProductType(); return err }},
		{"read serial number", func() error { info.SerialNumber, err = m.dev.ReadSerialNumber(); return err }},
		{"read auto-cleaning interval", func() error { info.AutoCleanInterval, err = m.dev.ReadAutoCleaningInterval(); return err }},
		{"read status register", func() error { info.Status, err = m.dev.ReadStatus(); return err }},
	}
	for _, s := range steps {
		if cerr := ctx.Err(); cerr != nil {
			return info, cerr
		}
		if serr := s.fn(); serr != nil {
			m.fail(s.op, serr)
			return info, errcode.Wrap(s.op, serr)
		}
	}
	if m.sink != nil {
		m.sink.SetStatus(info.Status)
	}
	return info, nil
}

// Run wakes the sensor unless it is measuring, starts measuring and polls until ctx is
// done. Failed cycles are logged and counted; the next tick starts a new
// cycle. On return the sensor is stopped and, with SleepOnExit, asleep.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.start(); err != nil {
		return err
	}
	defer m.shutdown()

	tick := time.NewTicker(m.opts.PollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			m.poll()
		}
	}
}

// Wake sends the wake-up sequence unless the sensor is measuring. A sensor
// left asleep by an earlier process still reads as Idle, so Idle is woken
// too. Run wakes on its own; call Wake first to use Info before Run.
func (m *Monitor) Wake() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wake()
}

func (m *Monitor) wake() error {
	from := m.dev.State()
	if from == sps30.Measuring {
		return nil
	}
	if err := m.dev.Wakeup(); err != nil {
		return errcode.Wrap("wake-up", err)
	}
	m.woken = true
	m.log.Info("wake-up sent", zap.Stringer("from", from))
	return nil
}

func (m *Monitor) start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.woken {
		if err := m.wake(); err != nil {
			return err
		}
	}
	if m.opts.AutoCleanInterval >= 0 {
		iv := uint32(m.opts.AutoCleanInterval)
		if err := m.dev.WriteAutoCleaningInterval(iv); err != nil {
			return errcode.Wrap("write auto-cleaning interval", err)
		}
		m.log.Info("auto-cleaning interval set", zap.Uint32("seconds", iv))
	}
	if m.dev.State() != sps30.Measuring {
		if err := m.dev.StartMeasurement(); err != nil {
			return errcode.Wrap("start measurement", err)
		}
	}
	m.log.Info("measurement started",
		zap.Stringer("width", m.dev.Width()),
		zap.Duration("poll", m.opts.PollInterval))
	return nil
}

func (m *Monitor) poll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ready, err := m.dev.ReadDataReady()
	if err != nil {
		m.fail("read data-ready flag", err)
		return
	}
	if !ready {
		m.log.Debug("data not ready")
		return
	}
	set, err := m.dev.ReadData()
	if err != nil {
		m.fail("read measured values", err)
		return
	}
	m.last, m.haveLast = set, true
	m.reads++
	if m.sink != nil {
		m.sink.Publish(set, float64(m.now().UnixNano())/1e9)
	}
	m.log.Debug("measurement",
		zap.Float32(sps30.MassPM2_5.String(), set.Get(sps30.MassPM2_5)),
		zap.Float32(sps30.MassPM10.String(), set.Get(sps30.MassPM10)),
		zap.Float32(sps30.TypicalSize.String(), set.Get(sps30.TypicalSize)))

	if m.opts.StatusEvery > 0 && m.reads%m.opts.StatusEvery == 0 {
		st, err := m.dev.ReadStatus()
		if err != nil {
			m.fail("read status register", err)
			return
		}
		if m.sink != nil {
			m.sink.SetStatus(st)
		}
		if st.Any() {
			m.log.Warn("sensor status flags set",
				zap.Bool("fan", st.FanError),
				zap.Bool("fan_speed", st.FanSpeedError),
				zap.Bool("laser", st.LaserError))
		}
	}
}

func (m *Monitor) shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev.State() == sps30.Measuring {
		if err := m.dev.StopMeasurement(); err != nil {
			m.fail("stop measurement", err)
			return
		}
	}
	if m.opts.SleepOnExit && m.dev.State() == sps30.Idle {
		if err := m.dev.Sleep(); err != nil {
			m.fail("sleep", err)
			return
		}
		m.woken = false
	}
	m.log.Info("measurement stopped", zap.Stringer("state", m.dev.State()))
}

func (m *Monitor) fail(op string, err error) {
	code := errcode.MapDriverErr(err)
	if m.sink != nil {
		m.sink.Fail(code)
	}
	m.log.Warn("transaction failed",
		zap.String("op", op),
		zap.String("code", string(code)),
		zap.Error(err))
}
