// internal/humanoid/driver.go

// Package humanoid executes validated UI actions against the operating
// system: pointer movement with a visible acknowledgment orbit before clicks,
// paced character-by-character typing behind the safety filter, and chorded
// key presses. The platform binding sits behind the Driver interface so the
// behavior layer stays testable without a display.
package humanoid

import (
	"time"
)

// Driver is the primitive OS input surface. Implementations are expected to
// fail soft on unknown keys or missing permissions by returning an error; the
// executor logs and moves on rather than crashing the loop.
type Driver interface {
	// ScreenSize returns the primary display resolution in pixels.
	ScreenSize() (width, height int, err error)
	// MoveTo moves the pointer to the pixel coordinate, spreading the motion
	// over the given duration when positive.
	MoveTo(x, y int, d time.Duration) error
	// Click issues a left click at the pixel coordinate.
	Click(x, y int) error
	// KeyToggle presses (down=true) or releases a named key.
	KeyToggle(key string, down bool) error
	// TypeChar emits a single character to the focused input.
	TypeChar(r rune) error
}
