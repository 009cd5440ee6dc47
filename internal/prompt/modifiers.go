package prompt

import (
	"fmt"
	"strings"
)

// Motion is the camera movement requested for the generated clip.
type Motion int

const (
	MotionNone Motion = iota
	MotionStatic
	MotionPan
	MotionZoomIn
	MotionOrbit
	MotionHandheld

	motionCount
)

var motionNames = map[Motion]string{
	MotionNone:     "none",
	MotionStatic:   "static",
	MotionPan:      "pan",
	MotionZoomIn:   "zoom-in",
	MotionOrbit:    "orbit",
	MotionHandheld: "handheld",
}

// motionPhrases is sent to the model as the requested camera behaviour.
var motionPhrases = map[Motion]string{
	MotionNone:     "",
	MotionStatic:   "locked-off static camera, no camera movement",
	MotionPan:      "slow smooth horizontal camera pan across the scene",
	MotionZoomIn:   "gradual slow zoom in toward the main subject",
	MotionOrbit:    "camera slowly orbits around the main subject",
	MotionHandheld: "subtle handheld camera sway with natural micro-movements",
}

func (m Motion) String() string {
	if n, ok := motionNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Motion(%d)", int(m))
}

// Phrase returns the natural-language camera phrase for m.
func (m Motion) Phrase() string { return motionPhrases[m] }

// ParseMotion resolves a motion by name.
func ParseMotion(s string) (Motion, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MotionNone, nil
	}
	for m, n := range motionNames {
		if n == s {
			return m, nil
		}
	}
	return MotionNone, fmt.Errorf("unknown motion %q", s)
}

// Toggle is an image-composition flag that always yields a fixed clause.
type Toggle int

const (
	ToggleFaceMask Toggle = iota
	ToggleSelfiePose
	ToggleFaceHidden

	toggleCount
)

// toggleOrder fixes the order in which clauses are emitted.
var toggleOrder = []Toggle{ToggleFaceMask, ToggleSelfiePose, ToggleFaceHidden}

var toggleClauses = map[Toggle]string{
	ToggleFaceMask:   "wearing a face mask covering the mouth and nose",
	ToggleSelfiePose: "holding the phone at arm's length in a selfie pose",
	ToggleFaceHidden: "face not shown, framed from the neck down or turned away from the camera",
}

var toggleNames = map[Toggle]string{
	ToggleFaceMask:   "face-mask",
	ToggleSelfiePose: "selfie-pose",
	ToggleFaceHidden: "face-hidden",
}

func (t Toggle) String() string {
	if n, ok := toggleNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Toggle(%d)", int(t))
}

// Clause returns the fixed descriptive clause for t.
func (t Toggle) Clause() string { return toggleClauses[t] }

func init() {
	if err := checkTables(); err != nil {
		panic(err)
	}
}

// checkTables verifies every enum value has an entry in each lookup table.
func checkTables() error {
	for m := Motion(0); m < motionCount; m++ {
		if _, ok := motionNames[m]; !ok {
			return fmt.Errorf("motion %d has no name", int(m))
		}
		if _, ok := motionPhrases[m]; !ok {
			return fmt.Errorf("motion %s has no phrase", m)
		}
	}
	if len(toggleOrder) != int(toggleCount) {
		return fmt.Errorf("toggle order lists %d of %d toggles", len(toggleOrder), toggleCount)
	}
	for t := Toggle(0); t < toggleCount; t++ {
		if toggleClauses[t] == "" {
			return fmt.Errorf("toggle %d has no clause", int(t))
		}
		if toggleNames[t] == "" {
			return fmt.Errorf("toggle %d has no name", int(t))
		}
	}
	return nil
}

// Selection is an immutable snapshot of the modifiers chosen for one run.
type Selection struct {
	motion  Motion
	toggles [toggleCount]bool
}

// NewSelection validates and builds a Selection.
func NewSelection(motion Motion, toggles ...Toggle) (Selection, error) {
	var s Selection
	if motion < 0 || motion >= motionCount {
		return s, fmt.Errorf("motion %d out of range", int(motion))
	}
	s.motion = motion
	for _, t := range toggles {
		if t < 0 || t >= toggleCount {
			return Selection{}, fmt.Errorf("toggle %d out of range", int(t))
		}
		s.toggles[t] = true
	}
	return s, nil
}

// Motion returns the selected camera motion.
func (s Selection) Motion() Motion { return s.motion }

// Has reports whether t is active.
func (s Selection) Has(t Toggle) bool {
	return t >= 0 && t < toggleCount && s.toggles[t]
}

// Active returns active toggles in emission order.
func (s Selection) Active() []Toggle {
	var out []Toggle
	for _, t := range toggleOrder {
		if s.toggles[t] {
			out = append(out, t)
		}
	}
	return out
}
