//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevReader is not available on non-Linux platforms.
type CdevReader struct{}

// NewCdevReader returns an error on non-Linux platforms.
func NewCdevReader(chipName string, pin int, pull Pull) (*CdevReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *CdevReader) Read() (bool, error) { return false, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *CdevReader) Close() error { return nil }

// RPIOReader is not available on non-Linux platforms.
type RPIOReader struct{}

// NewRPIOReader returns an error on non-Linux platforms.
func NewRPIOReader(pin int, pull Pull) (*RPIOReader, error) {
	if err := checkRPIOPin(pin); err != nil {
		return nil, err
	}
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RPIOReader) Read() (bool, error) { return false, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RPIOReader) Close() error { return nil }
