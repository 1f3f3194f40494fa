// internal/humanoid/robot_driver.go
package humanoid

import (
	"fmt"
	"math"
	"time"

	"github.com/go-vgo/robotgo"
)

// RobotDriver implements Driver on top of robotgo's OS bindings.
type RobotDriver struct{}

// NewRobotDriver returns the production input driver.
func NewRobotDriver() *RobotDriver { return &RobotDriver{} }

var _ Driver = (*RobotDriver)(nil)

// ScreenSize reports the primary display resolution.
func (d *RobotDriver) ScreenSize() (int, int, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("no usable display (reported %dx%d)", w, h)
	}
	return w, h, nil
}

// MoveTo moves the pointer to (x, y). robotgo's own move is instantaneous, so
// timed movement is interpolated here in small steps.
func (d *RobotDriver) MoveTo(x, y int, duration time.Duration) error {
	if duration <= 0 {
		robotgo.Move(x, y)
		return nil
	}

	startX, startY := robotgo.Location()
	const step = 10 * time.Millisecond
	steps := int(duration / step)
	if steps < 1 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		robotgo.Move(
			startX+int(math.Round(t*float64(x-startX))),
			startY+int(math.Round(t*float64(y-startY))),
		)
		time.Sleep(step)
	}
	robotgo.Move(x, y)
	return nil
}

// Click left-clicks at the pixel coordinate.
func (d *RobotDriver) Click(x, y int) error {
	robotgo.Move(x, y)
	robotgo.Click()
	return nil
}

// KeyToggle presses or releases a named key. Key-name translation is
// robotgo's concern; unknown names surface as an error and the caller skips.
func (d *RobotDriver) KeyToggle(key string, down bool) error {
	state := "down"
	if !down {
		state = "up"
	}
	return robotgo.KeyToggle(key, state)
}

// TypeChar emits one character to the focused input.
func (d *RobotDriver) TypeChar(r rune) error {
	robotgo.TypeStr(string(r))
	return nil
}
