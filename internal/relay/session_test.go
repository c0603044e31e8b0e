package relay

import (
	"testing"

	"github.com/novahotels/concierge/domain/entities"
)

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		raw  string
		want OutputMode
	}{
		{"text", OutputModeText},
		{"voice", OutputModeVoice},
		{"", OutputModeVoice},
		{"bogus", OutputModeVoice},
	}

	for _, tt := range tests {
		if got := ParseOutputMode(tt.raw); got != tt.want {
			t.Errorf("ParseOutputMode(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	sess := NewSession(OutputModeVoice)
	if sess.State() != StateConnecting {
		t.Fatalf("new session state = %q, want %q", sess.State(), StateConnecting)
	}

	guest := &entities.Guest{ID: "g1", FirstName: "Ada", RoomNumber: "204", CheckedIn: true}
	if err := sess.Authorize(guest, nil); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if sess.State() != StateAuthorized {
		t.Fatalf("state after authorize = %q", sess.State())
	}
	if sess.GuestID != "g1" || sess.RoomNumber != "204" {
		t.Errorf("guest context not captured: %q / %q", sess.GuestID, sess.RoomNumber)
	}

	for _, to := range []State{StateUpstreamConnecting, StateActive, StateClosing, StateClosed} {
		if err := sess.Transition(to); err != nil {
			t.Fatalf("Transition(%q): %v", to, err)
		}
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	sess := NewSession(OutputModeVoice)
	if err := sess.Transition(StateActive); err == nil {
		t.Error("connecting -> active should be rejected")
	}

	if err := sess.Transition(StateRejected); err != nil {
		t.Fatalf("Transition(rejected): %v", err)
	}
	if err := sess.Transition(StateAuthorized); err == nil {
		t.Error("rejected must be terminal")
	}
}

func TestTriggerWelcomeOnce(t *testing.T) {
	sess := NewSession(OutputModeVoice)
	guest := &entities.Guest{ID: "g1", FirstName: "Ada", RoomNumber: "204"}
	if err := sess.Authorize(guest, nil); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	if !sess.TriggerWelcome(true) {
		t.Fatal("first trigger with a configured welcome should fire")
	}
	if sess.TriggerWelcome(true) {
		t.Error("second trigger should be a no-op")
	}
}

func TestTriggerWelcomeNothingToDeliver(t *testing.T) {
	sess := NewSession(OutputModeVoice)
	guest := &entities.Guest{ID: "g1", FirstName: "Ada", RoomNumber: "204"}
	if err := sess.Authorize(guest, nil); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	if sess.TriggerWelcome(false) {
		t.Error("no welcome and no replies should not fire")
	}
	// The guard must not consume the trigger.
	if !sess.TriggerWelcome(true) {
		t.Error("a later trigger with a welcome should still fire")
	}
}

func TestTriggerWelcomeWithPendingReplies(t *testing.T) {
	sess := NewSession(OutputModeVoice)
	guest := &entities.Guest{ID: "g1", FirstName: "Ada", RoomNumber: "204"}
	pending := []*entities.Request{{ID: "r1", Reply: "Towels are on the way"}}
	if err := sess.Authorize(guest, pending); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	if !sess.TriggerWelcome(false) {
		t.Error("pending replies alone should fire the trigger")
	}
}

func TestMarkDispatchedDedup(t *testing.T) {
	sess := NewSession(OutputModeVoice)

	if !sess.MarkDispatched("call_1") {
		t.Fatal("first call id should be fresh")
	}
	if sess.MarkDispatched("call_1") {
		t.Error("repeated call id should be deduplicated")
	}
	if !sess.MarkDispatched("call_2") {
		t.Error("a distinct call id should be fresh")
	}
}

func TestTakePendingReplyIDsClears(t *testing.T) {
	sess := NewSession(OutputModeVoice)
	guest := &entities.Guest{ID: "g1", FirstName: "Ada", RoomNumber: "204"}
	pending := []*entities.Request{
		{ID: "r1", Reply: "Done"},
		{ID: "r2", Reply: "On the way"},
	}
	if err := sess.Authorize(guest, pending); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	ids := sess.TakePendingReplyIDs()
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
		t.Fatalf("TakePendingReplyIDs = %v", ids)
	}
	if again := sess.TakePendingReplyIDs(); len(again) != 0 {
		t.Errorf("second take should be empty, got %v", again)
	}
}
