// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lps28

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DataRate selects the output data rate of the sensor.
type DataRate byte

// Resolution selects the averaging window applied to each sample.
type Resolution byte

// FullScale selects the measurable pressure range.
type FullScale byte

const (
	// DefaultAddress is the sensor's I²C address.
	DefaultAddress uint16 = 0x5D

	// chipID is the value a genuine LPS28 returns from WHO_AM_I.
	chipID byte = 0xB4
)

const (
	// OneShot disables continuous sampling; a measurement is taken only when
	// triggered with TriggerOneShot. This is the power-on state of the chip.
	OneShot   DataRate = 0b0000
	Rate1Hz   DataRate = 0b0001
	Rate4Hz   DataRate = 0b0010
	Rate10Hz  DataRate = 0b0011
	Rate25Hz  DataRate = 0b0100
	Rate50Hz  DataRate = 0b0101
	Rate75Hz  DataRate = 0b0110
	Rate100Hz DataRate = 0b0111
	Rate200Hz DataRate = 0b1000
)

const (
	Average4   Resolution = 0b000
	Average8   Resolution = 0b001
	Average16  Resolution = 0b010
	Average32  Resolution = 0b011
	Average64  Resolution = 0b100
	Average128 Resolution = 0b101
	// Average512 is encoded as 0b111. The chip assigns no averaging class to
	// the pattern 0b110.
	Average512 Resolution = 0b111
)

const (
	// RangeNormal measures up to 1260 hPa at 1/4096 hPa per count.
	RangeNormal FullScale = 0b0
	// RangeExtended measures up to 4060 hPa at 1/2048 hPa per count.
	RangeExtended FullScale = 0b1
)

// Register addresses, named per the ilps28qsw datasheet.
const (
	regInterruptCfg byte = 0x0B
	regThsPL        byte = 0x0C
	regThsPH        byte = 0x0D
	regIfCtrl       byte = 0x0E
	regWhoAmI       byte = 0x0F
	regCtrl1        byte = 0x10
	regCtrl2        byte = 0x11
	regCtrl3        byte = 0x12
	regFifoCtrl     byte = 0x14
	regFifoWtm      byte = 0x15
	regRefPL        byte = 0x16
	regRefPH        byte = 0x17
	regI3cIfCtrl    byte = 0x19
	regRpdsL        byte = 0x1A
	regRpdsH        byte = 0x1B
	regIntSource    byte = 0x24
	regFifoStatus1  byte = 0x25
	regFifoStatus2  byte = 0x26
	regStatus       byte = 0x27
	regPressOutXL   byte = 0x28
	regPressOutL    byte = 0x29
	regPressOutH    byte = 0x2A
	regTempOutL     byte = 0x2B
	regTempOutH     byte = 0x2C
)

// field describes one bit-field within an 8-bit register.
type field struct {
	reg   byte
	shift uint
	width uint
}

// CTRL_REG1 (0x10)
// | ---- | ODR3 | ODR2 | ODR1 | ODR0 | AVG2 | AVG1 | AVG0 |
var (
	fieldDataRate   = field{reg: regCtrl1, shift: 3, width: 4}
	fieldResolution = field{reg: regCtrl1, shift: 0, width: 3}
)

// CTRL_REG2 (0x11)
// | BOOT | FS_MODE | LFPF_CFG | EN_LPFP | BDU | SWRESET | ---- | ONESHOT |
var (
	fieldFullScale = field{reg: regCtrl2, shift: 6, width: 1}
	fieldSwReset   = field{reg: regCtrl2, shift: 2, width: 1}
	fieldOneShot   = field{reg: regCtrl2, shift: 0, width: 1}
)

// INTERRUPT_CFG (0x0B) holds the enables, INT_SOURCE (0x24) the latched
// status. Bit 1 is the low threshold, bit 0 the high threshold in both.
var (
	fieldLowEnable    = field{reg: regInterruptCfg, shift: 1, width: 1}
	fieldHighEnable   = field{reg: regInterruptCfg, shift: 0, width: 1}
	fieldLowExceeded  = field{reg: regIntSource, shift: 1, width: 1}
	fieldHighExceeded = field{reg: regIntSource, shift: 0, width: 1}
)

// Dev represents an LPS28 sensor.
type Dev struct {
	d        *i2c.Dev
	mu       sync.Mutex
	shutdown chan struct{}

	// Both values are derived from the CTRL_REG2 full-scale bit and must be
	// updated in the same critical section as the register write that changes
	// it. pressureScale converts raw pressure counts to hPa, thresholdDivisor
	// converts THS_P counts to hPa.
	pressureScale    float64
	thresholdDivisor float64
}

// NewI2C returns a new LPS28 sensor using the specified bus and address.
// Use DefaultAddress unless the SA0 pad has been rewired.
//
// The identity register is checked first; a mismatch returns a
// DeviceNotFoundError. The chip powers up in one-shot mode, so on success the
// data rate is set to 10Hz and continuous sampling is already running.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{
		d:                &i2c.Dev{Bus: b, Addr: addr},
		pressureScale:    4096,
		thresholdDivisor: 16,
	}
	id, err := d.readReg(regWhoAmI)
	if err != nil {
		return nil, err
	}
	if id != chipID {
		return nil, &DeviceNotFoundError{Addr: addr, ID: id}
	}
	if err := d.writeField(fieldDataRate, byte(Rate10Hz)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) readReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := d.d.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *Dev) writeReg(reg, value byte) error {
	return d.d.Tx([]byte{reg, value}, nil)
}

func (d *Dev) readField(f field) (byte, error) {
	v, err := d.readReg(f.reg)
	if err != nil {
		return 0, err
	}
	return (v >> f.shift) & byte(1<<f.width-1), nil
}

// writeField read-modify-writes one bit-field, leaving the register's other
// bits untouched.
func (d *Dev) writeField(f field, value byte) error {
	v, err := d.readReg(f.reg)
	if err != nil {
		return err
	}
	mask := byte(1<<f.width-1) << f.shift
	v = v&^mask | value<<f.shift&mask
	return d.writeReg(f.reg, v)
}

// DataRate returns the sensor's configured output data rate.
func (d *Dev) DataRate() (DataRate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readField(fieldDataRate)
	return DataRate(v), err
}

// SetDataRate sets the output data rate. OneShot stops continuous sampling;
// the output registers then update only on TriggerOneShot.
func (d *Dev) SetDataRate(rate DataRate) error {
	switch rate {
	case OneShot, Rate1Hz, Rate4Hz, Rate10Hz, Rate25Hz, Rate50Hz, Rate75Hz, Rate100Hz, Rate200Hz:
	default:
		return &InvalidSettingError{Setting: "data rate", Value: byte(rate)}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeField(fieldDataRate, byte(rate))
}

// Resolution returns the sensor's configured averaging window.
func (d *Dev) Resolution() (Resolution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readField(fieldResolution)
	return Resolution(v), err
}

// SetResolution sets the averaging window. Larger windows lower noise at the
// cost of current draw and, at high data rates, the reachable rate.
func (d *Dev) SetResolution(res Resolution) error {
	switch res {
	case Average4, Average8, Average16, Average32, Average64, Average128, Average512:
	default:
		return &InvalidSettingError{Setting: "resolution", Value: byte(res)}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeField(fieldResolution, byte(res))
}

// FullScale returns the sensor's configured pressure range.
func (d *Dev) FullScale() (FullScale, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readField(fieldFullScale)
	return FullScale(v), err
}

// SetFullScale sets the pressure range. The raw-count scale factors for both
// the pressure output and the threshold register change with the range; they
// are updated together with the register write.
func (d *Dev) SetFullScale(scale FullScale) error {
	switch scale {
	case RangeNormal, RangeExtended:
	default:
		return &InvalidSettingError{Setting: "full scale", Value: byte(scale)}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeField(fieldFullScale, byte(scale)); err != nil {
		return err
	}
	if scale == RangeExtended {
		d.pressureScale = 2048
		d.thresholdDivisor = 8
	} else {
		d.pressureScale = 4096
		d.thresholdDivisor = 16
	}
	return nil
}

// twosComplement reinterprets an unsigned field of the given width as a
// signed value.
func twosComplement(value uint32, bits uint) int32 {
	if value&(1<<(bits-1)) == 0 {
		return int32(value)
	}
	return int32(value - 1<<bits)
}

// rawPressure reads the 24-bit two's-complement pressure output.
func (d *Dev) rawPressure() (int32, error) {
	var buf [3]byte
	if err := d.d.Tx([]byte{regPressOutXL}, buf[:]); err != nil {
		return 0, err
	}
	raw := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16
	return twosComplement(raw, 24), nil
}

// rawTemperature reads the signed 16-bit temperature output in centi-°C.
func (d *Dev) rawTemperature() (int16, error) {
	var buf [2]byte
	if err := d.d.Tx([]byte{regTempOutL}, buf[:]); err != nil {
		return 0, err
	}
	return int16(uint16(buf[0]) | uint16(buf[1])<<8), nil
}

// Pressure returns the current pressure in hPa. Each call issues a bus
// transaction; the value reflects the device's latest sample at its
// configured data rate.
func (d *Dev) Pressure() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.rawPressure()
	if err != nil {
		return 0, err
	}
	return float64(raw) / d.pressureScale, nil
}

// Temperature returns the current temperature in °C.
func (d *Dev) Temperature() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.rawTemperature()
	if err != nil {
		return 0, err
	}
	return float64(raw) / 100, nil
}

// HighThresholdEnabled reports whether the high pressure threshold interrupt
// is enabled.
func (d *Dev) HighThresholdEnabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readField(fieldHighEnable)
	return v != 0, err
}

// SetHighThresholdEnabled enables or disables the high pressure threshold
// interrupt. Set a comparison value with SetPressureThreshold.
func (d *Dev) SetHighThresholdEnabled(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeField(fieldHighEnable, boolBit(enable))
}

// LowThresholdEnabled reports whether the low pressure threshold interrupt
// is enabled.
func (d *Dev) LowThresholdEnabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readField(fieldLowEnable)
	return v != 0, err
}

// SetLowThresholdEnabled enables or disables the low pressure threshold
// interrupt.
func (d *Dev) SetLowThresholdEnabled(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeField(fieldLowEnable, boolBit(enable))
}

// HighThresholdExceeded reports whether pressure has exceeded the high
// threshold. Requires SetHighThresholdEnabled(true) and a threshold value.
func (d *Dev) HighThresholdExceeded() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readField(fieldHighExceeded)
	return v != 0, err
}

// LowThresholdExceeded reports whether pressure has fallen below the low
// threshold. Requires SetLowThresholdEnabled(true) and a threshold value.
func (d *Dev) LowThresholdExceeded() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readField(fieldLowExceeded)
	return v != 0, err
}

// PressureThreshold returns the interrupt comparison pressure in hPa.
func (d *Dev) PressureThreshold() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf [2]byte
	if err := d.d.Tx([]byte{regThsPL}, buf[:]); err != nil {
		return 0, err
	}
	raw := uint16(buf[0]) | uint16(buf[1])<<8
	return float64(raw) / d.thresholdDivisor, nil
}

// SetPressureThreshold sets the interrupt comparison pressure in hPa. The
// hardware register is 16 bits of raw counts (16 per hPa in the normal range,
// 8 in the extended range); no range check is performed, a value whose raw
// form exceeds 16 bits wraps.
func (d *Dev) SetPressureThreshold(hPa float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw := uint16(int64(hPa * d.thresholdDivisor))
	return d.d.Tx([]byte{regThsPL, byte(raw), byte(raw >> 8)}, nil)
}

// TriggerOneShot starts a single measurement. Only meaningful when the data
// rate is OneShot; the output registers hold the result once the conversion
// completes.
func (d *Dev) TriggerOneShot() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeField(fieldOneShot, 1)
}

// SoftReset restores the control registers to their power-on state. The chip
// re-enters one-shot mode; call SetDataRate to resume continuous sampling.
func (d *Dev) SoftReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeField(fieldSwReset, 1); err != nil {
		return err
	}
	// The reset completes within 50us per the datasheet.
	time.Sleep(time.Millisecond)
	d.pressureScale = 4096
	d.thresholdDivisor = 16
	return nil
}

// Sense reads pressure and temperature from the device and writes them to
// the specified env variable. Humidity is always 0. Implements
// physic.SenseEnv.
func (d *Dev) Sense(env *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rawP, err := d.rawPressure()
	if err != nil {
		return err
	}
	rawT, err := d.rawTemperature()
	if err != nil {
		return err
	}
	hPa := float64(rawP) / d.pressureScale
	env.Pressure = physic.Pressure(hPa * float64(100*physic.Pascal))
	env.Temperature = physic.ZeroCelsius + physic.Temperature(rawT)*10*physic.MilliKelvin
	env.Humidity = 0
	return nil
}

// SenseContinuous continuously reads from the device and writes the values
// to the returned channel. Implements physic.SenseEnv. To terminate the
// continuous read, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		return nil, errors.New("lps28: SenseContinuous already running")
	}
	d.shutdown = make(chan struct{})
	channel := make(chan physic.Env, 16)
	go func(ch chan physic.Env, shutdown <-chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := d.Sense(&env); err == nil && len(ch) < cap(ch) {
					ch <- env
				}
			}
		}
	}(channel, d.shutdown)
	return channel, nil
}

// Precision returns the smallest pressure and temperature steps the device
// can report at its current range. Implements physic.SenseEnv.
func (d *Dev) Precision(env *physic.Env) {
	d.mu.Lock()
	defer d.mu.Unlock()
	env.Pressure = physic.Pressure(float64(100*physic.Pascal) / d.pressureScale)
	env.Temperature = 10 * physic.MilliKelvin
	env.Humidity = 0
}

// Halt stops a running SenseContinuous. The device itself keeps sampling at
// its configured data rate; use SetDataRate(OneShot) to stop it. Implements
// conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("lps28: %s", d.d.String())
}

func boolBit(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (r DataRate) String() string {
	switch r {
	case OneShot:
		return "one-shot"
	case Rate1Hz:
		return "1Hz"
	case Rate4Hz:
		return "4Hz"
	case Rate10Hz:
		return "10Hz"
	case Rate25Hz:
		return "25Hz"
	case Rate50Hz:
		return "50Hz"
	case Rate75Hz:
		return "75Hz"
	case Rate100Hz:
		return "100Hz"
	case Rate200Hz:
		return "200Hz"
	}
	return fmt.Sprintf("DataRate(0b%04b)", byte(r))
}

func (r Resolution) String() string {
	switch r {
	case Average4:
		return "4 sample avg"
	case Average8:
		return "8 sample avg"
	case Average16:
		return "16 sample avg"
	case Average32:
		return "32 sample avg"
	case Average64:
		return "64 sample avg"
	case Average128:
		return "128 sample avg"
	case Average512:
		return "512 sample avg"
	}
	return fmt.Sprintf("Resolution(0b%03b)", byte(r))
}

func (s FullScale) String() string {
	switch s {
	case RangeNormal:
		return "normal (1260 hPa)"
	case RangeExtended:
		return "extended (4060 hPa)"
	}
	return fmt.Sprintf("FullScale(%d)", byte(s))
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
