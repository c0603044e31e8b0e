package relay

import (
	"strings"
	"testing"

	"github.com/novahotels/concierge/domain/entities"
)

func TestBuildInstructionsWithWelcome(t *testing.T) {
	got := buildInstructions(instructionInput{
		Base:           "You are Nova, the hotel concierge.",
		WelcomeMessage: "Welcome to Nova Hotels!",
		GuestFirstName: "Ada",
		RoomNumber:     "204",
		MemorySummary:  "No prior requests or complaints this stay.",
	})

	if !strings.HasPrefix(got, "You are Nova, the hotel concierge.") {
		t.Error("persona must come first")
	}
	if !strings.Contains(got, `say this welcome out loud first, then wait for the guest: "Welcome to Nova Hotels!"`) {
		t.Error("welcome clause missing or reworded")
	}
	if !strings.Contains(got, loggingPolicyLine) {
		t.Error("logging policy line missing")
	}
	if !strings.Contains(got, guestScopingLine) {
		t.Error("guest scoping line missing")
	}
	if !strings.Contains(got, "Current guest: Ada, Room 204. No prior requests or complaints this stay.") {
		t.Error("guest context line missing")
	}
}

func TestBuildInstructionsWithoutWelcome(t *testing.T) {
	got := buildInstructions(instructionInput{
		Base:           "You are Nova.",
		WelcomeMessage: "   ",
		GuestFirstName: "Ada",
		RoomNumber:     "204",
		MemorySummary:  "",
	})

	if strings.Contains(got, "say this welcome out loud") {
		t.Error("blank welcome must not produce a welcome clause")
	}
	if !strings.Contains(got, loggingPolicyLine) {
		t.Error("policy lines must be present regardless of welcome")
	}
}

func TestBuildReplyDeliveryText(t *testing.T) {
	pending := []*entities.Request{
		{Description: "Extra towels", Reply: "Towels are on the way"},
		{Description: "AC broken", Reply: "Maintenance visits at 3pm"},
	}

	got := buildReplyDeliveryText(pending)

	if !strings.HasPrefix(got, "Before anything else, read me the hotel management replies") {
		t.Error("delivery text must open with the read-back instruction")
	}
	if !strings.Contains(got, `- Regarding "Extra towels": "Towels are on the way"`) {
		t.Error("first reply missing or reformatted")
	}
	if !strings.Contains(got, `- Regarding "AC broken": "Maintenance visits at 3pm"`) {
		t.Error("second reply missing or reformatted")
	}
}
