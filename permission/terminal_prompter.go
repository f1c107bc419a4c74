package permission

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/devicebridge-dev/devicebridge"
)

// capabilityDescriptions is what the prompt shows the user per capability.
var capabilityDescriptions = map[devicebridge.CapabilityID]string{
	devicebridge.CapabilityCamera:      "Capture photos with the device camera",
	devicebridge.CapabilityGeolocation: "Read the device's current position",
	devicebridge.CapabilityDeviceInfo:  "Read device metadata",
}

// TerminalPrompter implements Requester with an interactive terminal
// prompt. It stands in for the platform-owned permission dialog when the
// bridge runs host-side.
type TerminalPrompter struct{}

// NewTerminalPrompter creates a TerminalPrompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{}
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Request implements Requester. One prompt per call, at most.
func (p *TerminalPrompter) Request(_ context.Context, id devicebridge.CapabilityID) (State, error) {
	if !p.IsInteractive() {
		return StateUnknown, p.formatNonInteractiveError(id)
	}

	desc, ok := capabilityDescriptions[id]
	if !ok {
		desc = id.String()
	}

	const (
		optionGrant = "Allow"
		optionDeny  = "Deny"
	)

	var selection string

	err := huh.NewSelect[string]().
		Title(fmt.Sprintf("Permission Requested: %s", id)).
		Description(desc).
		Options(
			huh.NewOption(optionGrant, optionGrant),
			huh.NewOption(optionDeny, optionDeny),
		).
		Value(&selection).
		Run()
	if err != nil {
		return StateUnknown, err
	}

	if selection == optionGrant {
		return StateGranted, nil
	}
	return StateDenied, nil
}

// formatNonInteractiveError creates a helpful error message for
// non-interactive mode.
func (p *TerminalPrompter) formatNonInteractiveError(id devicebridge.CapabilityID) error {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("capability %q requires permission (running in non-interactive mode)\n\n", id))
	msg.WriteString("To grant it:\n")
	msg.WriteString("  1. Run interactively and approve when prompted\n")
	msg.WriteString("  2. Wire a non-interactive permission source such as permission.Static\n")
	return fmt.Errorf("%s", msg.String())
}
