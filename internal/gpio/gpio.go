// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementations use the Linux GPIO character device or the
// BCM2835 register map. The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Reader reads a single GPIO input line.
type Reader interface {
	// Read returns the raw electrical level of the line (true = high).
	// Polarity is resolved by the caller.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17
)

// MaxRPIOPin is the highest BCM2835 GPIO number. The cdev backend leaves
// range checks to the chip.
const MaxRPIOPin = 53

// Pull is the bias applied to the input when it is requested.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	}
	return "none"
}

// ParsePull parses "none", "up" or "down".
func ParsePull(s string) (Pull, error) {
	switch s {
	case "none", "":
		return PullNone, nil
	case "up":
		return PullUp, nil
	case "down":
		return PullDown, nil
	}
	return PullNone, fmt.Errorf("unknown pull mode %q (want none, up or down)", s)
}

// Backend selects the hardware access method.
type Backend string

const (
	BackendCdev Backend = "cdev"
	BackendRPIO Backend = "rpio"
)

// Open returns a Reader for pin on the given backend.
func Open(backend Backend, chip string, pin int, pull Pull) (Reader, error) {
	switch backend {
	case BackendCdev, "":
		r, err := NewCdevReader(chip, pin, pull)
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendRPIO:
		r, err := NewRPIOReader(pin, pull)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown gpio backend %q", backend)
}

func checkRPIOPin(pin int) error {
	if pin < 0 || pin > MaxRPIOPin {
		return fmt.Errorf("pin %d out of range for rpio (0-%d)", pin, MaxRPIOPin)
	}
	return nil
}
