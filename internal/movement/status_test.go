package movement

import (
	"testing"

	"github.com/erazemk/premik/internal/model"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		action   Action
		next     string
		warns    bool
		rejected bool
	}{
		{"out from stock", model.StatusInStock, ActionOut, model.StatusInTransit, false, false},
		{"out from received is a customer transfer", model.StatusReceived, ActionOut, model.StatusInTransit, true, false},
		{"out while in transit", model.StatusInTransit, ActionOut, "", false, true},
		{"out from returned", model.StatusReturned, ActionOut, "", false, true},

		{"in from returned", model.StatusReturned, ActionIn, model.StatusInStock, false, false},
		{"in while already in stock", model.StatusInStock, ActionIn, "", false, true},
		{"in skipping return step", model.StatusReceived, ActionIn, model.StatusInStock, true, false},
		{"in skipping receive step", model.StatusInTransit, ActionIn, model.StatusInStock, true, false},

		{"receive in-transit item", model.StatusInTransit, ActionReceive, model.StatusReceived, false, false},
		{"receive item in stock", model.StatusInStock, ActionReceive, "", false, true},
		{"receive already received item", model.StatusReceived, ActionReceive, "", false, true},

		{"return received item", model.StatusReceived, ActionReturn, model.StatusReturned, false, false},
		{"return item in stock", model.StatusInStock, ActionReturn, "", false, true},
		{"return in-transit item", model.StatusInTransit, ActionReturn, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, warning, err := Transition(tt.status, tt.action)
			if tt.rejected {
				if err == nil {
					t.Fatalf("expected rejection, got next status %q", next)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition: %v", err)
			}
			if next != tt.next {
				t.Errorf("expected next status %q, got %q", tt.next, next)
			}
			if tt.warns && warning == "" {
				t.Error("expected a warning")
			}
			if !tt.warns && warning != "" {
				t.Errorf("unexpected warning %q", warning)
			}
		})
	}
}

func TestActionDirection(t *testing.T) {
	if ActionOut.Direction() != model.DirectionOut {
		t.Error("out action should record an outbound event")
	}
	for _, a := range []Action{ActionIn, ActionReceive, ActionReturn} {
		if a.Direction() != model.DirectionIn {
			t.Errorf("%s action should record an inbound event", a)
		}
	}
}

func TestActionValid(t *testing.T) {
	if Action("teleport").Valid() {
		t.Error("unknown action should be invalid")
	}
	if !ActionReceive.Valid() {
		t.Error("receive should be a valid action")
	}
}
