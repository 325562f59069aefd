//go:build linux

package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOReader reads a pin through the memory-mapped BCM2835 registers.
// Only one RPIOReader may be open at a time.
type RPIOReader struct {
	pin rpio.Pin
}

// NewRPIOReader maps GPIO memory and configures pin as an input.
func NewRPIOReader(pin int, pull Pull) (*RPIOReader, error) {
	if err := checkRPIOPin(pin); err != nil {
		return nil, err
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio memory: %w", err)
	}

	p := rpio.Pin(pin)
	p.Input()
	switch pull {
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	default:
		p.PullOff()
	}

	return &RPIOReader{pin: p}, nil
}

// Read returns the raw level of the pin.
func (r *RPIOReader) Read() (bool, error) {
	return r.pin.Read() == rpio.High, nil
}

// Close restores pull-down and unmaps GPIO memory.
func (r *RPIOReader) Close() error {
	r.pin.PullDown()
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("close gpio memory: %w", err)
	}
	return nil
}
