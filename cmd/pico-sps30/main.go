//go:build rp2040 || rp2350

// Command pico-sps30 reads an SPS30 on i2c0 (GP4/GP5) and prints each
// measurement on the USB console.
package main

import (
	"machine"
	"strconv"
	"time"

	"sps30-go/drivers/sps30"
)

func main() {
	time.Sleep(2 * time.Second)
	println("[sps30] boot")

	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{
		Frequency: 100 * machine.KHz, // SPS30 maximum
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		println("[sps30] i2c configure:", err.Error())
		return
	}

	dev := sps30.New(bus, sps30.Config{
		Width:     sps30.Float32,
		Checksum:  sps30.CRC8,
		ReadDelay: 20 * time.Millisecond,
	})

	if v, err := dev.ReadFirmwareVersion(); err == nil {
		println("[sps30] firmware", v.String())
	}
	if s, err := dev.ReadSerialNumber(); err == nil {
		println("[sps30] serial", s)
	}

	for {
		if err := dev.StartMeasurement(); err != nil {
			println("[sps30] start:", err.Error())
			time.Sleep(5 * time.Second)
			continue
		}
		break
	}

	for {
		time.Sleep(time.Second)
		ready, err := dev.ReadDataReady()
		if err != nil {
			println("[sps30] data-ready:", err.Error())
			continue
		}
		if !ready {
			continue
		}
		m, err := dev.ReadData()
		if err != nil {
			println("[sps30] read:", err.Error())
			continue
		}
		for _, ch := range sps30.Channels() {
			print(ch.String(), "=", ftoa(m.Get(ch)), " ")
		}
		println()
	}
}

func ftoa(f float32) string { return strconv.FormatFloat(float64(f), 'f', 2, 32) }
