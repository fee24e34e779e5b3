package motion

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command is a side effect requested by the Router, to be executed by the
// daemon loop against the output collaborators.
type Command interface {
	commandMarker()
	String() string
}

// CmdEmit sends whole scroll and zoom units to the virtual pointer.
type CmdEmit struct {
	DX, DY, DZ int
}

func (CmdEmit) commandMarker() {}
func (c CmdEmit) String() string {
	return fmt.Sprintf("CmdEmit(dx=%d, dy=%d, dz=%d)", c.DX, c.DY, c.DZ)
}

// CmdSwitchDesktop moves to the next or previous virtual desktop.
type CmdSwitchDesktop struct {
	Direction Direction
}

func (CmdSwitchDesktop) commandMarker() {}
func (c CmdSwitchDesktop) String() string {
	return fmt.Sprintf("CmdSwitchDesktop(%s)", c.Direction)
}

// CmdOverview opens the window overview.
type CmdOverview struct{}

func (CmdOverview) commandMarker() {}
func (CmdOverview) String() string { return "CmdOverview()" }

// CmdShowDesktop shows or hides the desktop.
type CmdShowDesktop struct {
	Shown bool
}

func (CmdShowDesktop) commandMarker()   {}
func (c CmdShowDesktop) String() string { return fmt.Sprintf("CmdShowDesktop(shown=%v)", c.Shown) }
