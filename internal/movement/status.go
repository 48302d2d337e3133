package movement

import (
	"fmt"

	"github.com/erazemk/premik/internal/model"
)

// Action is the operator-requested movement kind. Actions map onto the two
// stored ledger directions: out stays out, everything else is recorded as
// an inbound-side event.
type Action string

const (
	// ActionOut sends items from base (or directly from a customer site)
	// to a customer location.
	ActionOut Action = "out"
	// ActionIn checks items back into base stock.
	ActionIn Action = "in"
	// ActionReceive is the customer-side confirmation that in-transit
	// items arrived.
	ActionReceive Action = "receive"
	// ActionReturn marks received items for pickup back to base.
	ActionReturn Action = "return"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionOut, ActionIn, ActionReceive, ActionReturn:
		return true
	}
	return false
}

// Direction returns the ledger direction the action is recorded under.
func (a Action) Direction() string {
	if a == ActionOut {
		return model.DirectionOut
	}
	return model.DirectionIn
}

// Transition computes the status an item moves to when the action is
// applied. A non-empty warning means the transition is unusual but
// allowed; a non-nil error means it is illegal and must block the write.
//
// The machine is consulted twice per scan: once at scan time (soft, so the
// operator sees problems immediately) and again at submit time against the
// persisted status, because another session may have moved the item in
// between.
func Transition(status string, action Action) (next, warning string, err error) {
	switch action {
	case ActionOut:
		switch status {
		case model.StatusInStock:
			return model.StatusInTransit, "", nil
		case model.StatusReceived:
			// Customer-to-customer transfer without passing through base.
			return model.StatusInTransit, "transfer between customer locations without base return", nil
		default:
			return "", "", fmt.Errorf("not in stock or received (status %s)", status)
		}

	case ActionIn:
		switch status {
		case model.StatusInStock:
			return "", "", fmt.Errorf("already in stock")
		case model.StatusReturned:
			return model.StatusInStock, "", nil
		default:
			// Checked in without the customer confirming return first.
			return model.StatusInStock, fmt.Sprintf("checked in from %s, expected returned", status), nil
		}

	case ActionReceive:
		if status != model.StatusInTransit {
			return "", "", fmt.Errorf("cannot receive: not in transit (status %s)", status)
		}
		return model.StatusReceived, "", nil

	case ActionReturn:
		if status != model.StatusReceived {
			return "", "", fmt.Errorf("cannot return: not received (status %s)", status)
		}
		return model.StatusReturned, "", nil
	}

	return "", "", fmt.Errorf("unknown action %q", action)
}
