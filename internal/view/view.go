// Package view derives which editor controls are usable from session state.
//
// The policy is a pure function of two flags. Hosts render it however they
// like: the MCP server reports it alongside every tool result.
package view

import "github.com/ironsheep/image-tune/internal/session"

// Opacity used for enabled and disabled controls.
const (
	FullAlpha   = 1.0
	DimmedAlpha = 0.3
)

// Tool labels.
const (
	LabelSaturation = "Saturation"
	LabelNoImage    = "No image"
)

// Control describes one control.
type Control struct {
	Enabled bool    `json:"enabled"`
	Alpha   float64 `json:"alpha"`
}

// Descriptor is the complete enablement state of the editor controls.
type Descriptor struct {
	Save      Control `json:"save"`
	Discard   Control `json:"discard"`
	Adjust    Control `json:"adjust"`
	ToolLabel string  `json:"tool_label"`
}

func control(enabled bool) Control {
	if enabled {
		return Control{Enabled: true, Alpha: FullAlpha}
	}
	return Control{Enabled: false, Alpha: DimmedAlpha}
}

// Describe returns the control state for a session that is opened and/or dirty.
//
// Save and discard need unsaved edits, adjusting needs an image. A control is
// dimmed exactly when it is disabled.
func Describe(opened, dirty bool) Descriptor {
	label := LabelNoImage
	if opened {
		label = LabelSaturation
	}
	return Descriptor{
		Save:      control(dirty),
		Discard:   control(dirty),
		Adjust:    control(opened),
		ToolLabel: label,
	}
}

// ForSnapshot is Describe applied to a session snapshot.
func ForSnapshot(snap session.Snapshot) Descriptor {
	return Describe(snap.Opened, snap.Dirty)
}
