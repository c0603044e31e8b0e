package relay

import (
	"fmt"
	"strings"

	"github.com/novahotels/concierge/domain/entities"
)

// Behavioral policy lines appended to every session's instructions. These
// are contract, enforced only by prompt: keep the wording stable.
const (
	loggingPolicyLine = "Whenever the guest requests a service or makes a complaint, you must call the log_request tool before replying."

	guestScopingLine = "Attribute memories and preferences only to the current guest speaking. Never attribute them to other occupants of the same room, past or present."
)

// instructionInput carries everything that goes into one session's
// upstream instructions.
type instructionInput struct {
	Base           string
	WelcomeMessage string
	GuestFirstName string
	RoomNumber     string
	MemorySummary  string
}

// buildInstructions assembles the natural-language system instructions for
// a session: persona, optional verbatim welcome, the hard policy lines,
// and the guest context line with the memory summary.
func buildInstructions(in instructionInput) string {
	parts := []string{in.Base}

	if welcome := strings.TrimSpace(in.WelcomeMessage); welcome != "" {
		parts = append(parts, fmt.Sprintf("When the conversation starts, say this welcome out loud first, then wait for the guest: %q", welcome))
	}

	parts = append(parts, loggingPolicyLine, guestScopingLine)

	parts = append(parts, fmt.Sprintf("Current guest: %s, Room %s. %s", in.GuestFirstName, in.RoomNumber, in.MemorySummary))

	return strings.Join(parts, "\n\n")
}

// buildReplyDeliveryText composes the synthetic user turn that compels the
// agent to deliver pending manager replies at session start. A user turn
// is deliberate here: the upstream model acts on user turns more reliably
// than on extra instruction text.
func buildReplyDeliveryText(pending []*entities.Request) string {
	var b strings.Builder
	b.WriteString("Before anything else, read me the hotel management replies to my earlier requests, word for word:")
	for _, req := range pending {
		b.WriteString(fmt.Sprintf("\n- Regarding %q: %q", req.Description, req.Reply))
	}
	return b.String()
}
