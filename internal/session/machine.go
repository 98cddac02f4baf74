package session

import (
	"fmt"
	"slices"
)

// Step names one state of a payment flow.
type Step string

// Steps shared by most demos. Individual flows may insert extra
// interactive states (sponsor-sign, qr-generated, scanning, ...).
const (
	StepInput      Step = "input"
	StepConfirm    Step = "confirm"
	StepProcessing Step = "processing"
	StepCompleted  Step = "completed"

	StepSponsorSign Step = "sponsor-sign"

	StepQRGenerated Step = "qr-generated"
	StepScanning    Step = "scanning"
	StepConfirming  Step = "confirming"

	StepIdle       Step = "idle"
	StepDepositing Step = "depositing"
	StepCharged    Step = "charged"
	StepSpending   Step = "spending"
	StepSpent      Step = "spent"
)

// Machine is a finite-state machine over a declared ordered step list.
// Steps only advance forward one at a time; a failure retreats exactly one
// step, back to the last user-confirmable state, never to the start
// mid-flow. The last step in the order is terminal and reachable only by a
// successful advance.
type Machine struct {
	order []Step
	idx   int
}

// NewMachine builds a machine positioned at the first step of order.
func NewMachine(order []Step) *Machine {
	if len(order) < 2 {
		panic("step machine needs at least two steps")
	}
	return &Machine{order: slices.Clone(order)}
}

// Current returns the current step.
func (m *Machine) Current() Step { return m.order[m.idx] }

// Order returns the declared step sequence.
func (m *Machine) Order() []Step { return slices.Clone(m.order) }

// Completed reports whether the machine reached its terminal step.
func (m *Machine) Completed() bool { return m.idx == len(m.order)-1 }

// Next returns the immediate successor of the current step, if any.
func (m *Machine) Next() (Step, bool) {
	if m.Completed() {
		return "", false
	}
	return m.order[m.idx+1], true
}

// Advance moves to next, which must be the immediate successor of the
// current step in the declared order.
func (m *Machine) Advance(next Step) error {
	if m.Completed() {
		return fmt.Errorf("cannot advance from terminal step %q", m.Current())
	}
	if m.order[m.idx+1] != next {
		return fmt.Errorf("invalid transition %q -> %q (next is %q)", m.Current(), next, m.order[m.idx+1])
	}
	m.idx++
	return nil
}

// Retreat snaps back exactly one step. Used on error to return control to
// the last interactive state.
func (m *Machine) Retreat() {
	if m.idx > 0 {
		m.idx--
	}
}

// Reset returns to the first step. Only meaningful from the terminal step
// or an interactive one; the caller guards that.
func (m *Machine) Reset() { m.idx = 0 }
