package viewer

import (
	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/quality"
)

// Transition tags an image entering or leaving the stage.
type Transition string

const (
	None           Transition = ""
	EnterFromLeft  Transition = "enterFromLeft"
	EnterFromRight Transition = "enterFromRight"
	LeaveToLeft    Transition = "leaveToLeft"
	LeaveToRight   Transition = "leaveToRight"
)

// transitions returns the outgoing and incoming tags for a move in direction.
func transitions(direction int) (out, in Transition) {
	if direction < 0 {
		return LeaveToRight, EnterFromLeft
	}
	return LeaveToLeft, EnterFromRight
}

// DisplayFlags are the transient per-image flags, keyed by image ID.
type DisplayFlags struct {
	Active     bool       `json:"active"`
	Transition Transition `json:"transition,omitempty"`
}

// State is a snapshot of the viewer.
type State struct {
	Open              bool                    `json:"open"`
	ActiveIndex       int                     `json:"active_index"`
	ActiveID          string                  `json:"active_id,omitempty"`
	Count             int                     `json:"count"`
	Flags             map[string]DisplayFlags `json:"flags"`
	Preference        quality.Preference      `json:"preference"`
	Tier              catalog.TierName        `json:"tier"`
	URL               string                  `json:"url"`
	LeftArrowVisible  bool                    `json:"left_arrow_visible"`
	RightArrowVisible bool                    `json:"right_arrow_visible"`
	PanOffset         float64                 `json:"pan_offset"`
	Settling          bool                    `json:"settling"`
	ViewportWidth     int                     `json:"viewport_width"`
	ViewportHeight    int                     `json:"viewport_height"`
}

// ActiveCount returns how many images carry the active flag.
func (s State) ActiveCount() int {
	n := 0
	for _, f := range s.Flags {
		if f.Active {
			n++
		}
	}
	return n
}
