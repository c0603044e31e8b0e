package relay

// Upstream event types the relay intercepts. Every upstream frame is
// forwarded to the guest regardless; interception only adds side effects.
const (
	eventSessionUpdated          = "session.updated"
	eventResponseDone            = "response.done"
	eventFunctionCallArgsDone    = "response.function_call_arguments.done"
	eventInputTranscriptComplete = "conversation.item.input_audio_transcription.completed"
)

// Guest-originated message types handled specially; anything else from the
// guest is forwarded to the upstream untouched.
const (
	guestEventText        = "guest_text"
	guestEventAudioAppend = "input_audio_buffer.append"
)

// upstreamEvent is the union of the fields the relay cares about across
// the intercepted event shapes. Unknown fields are ignored; the original
// raw frame is what gets forwarded.
type upstreamEvent struct {
	Type       string        `json:"type"`
	CallID     string        `json:"call_id"`
	Name       string        `json:"name"`
	Arguments  string        `json:"arguments"`
	Transcript string        `json:"transcript"`
	Response   *responseDone `json:"response"`
}

type responseDone struct {
	Output []responseOutputItem `json:"output"`
}

type responseOutputItem struct {
	Type      string `json:"type"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type guestMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

// sessionUpdate is the first frame sent upstream after connecting. It
// declares modality, instructions, tools, and audio handling for the
// session.
type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Type             string       `json:"type"`
	OutputModalities []string     `json:"output_modalities"`
	Instructions     string       `json:"instructions"`
	Tools            []ToolSchema `json:"tools"`
	ToolChoice       string       `json:"tool_choice"`
	Audio            audioConfig  `json:"audio"`
}

type audioConfig struct {
	Input  audioInput  `json:"input"`
	Output audioOutput `json:"output"`
}

type audioInput struct {
	Format        audioFormat          `json:"format"`
	Transcription *transcriptionConfig `json:"transcription,omitempty"`
	TurnDetection turnDetection        `json:"turn_detection"`
}

type audioOutput struct {
	Format audioFormat `json:"format"`
	Voice  string      `json:"voice"`
}

type audioFormat struct {
	Type string `json:"type"`
	Rate int    `json:"rate"`
}

type transcriptionConfig struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

// conversationItemCreate injects an item into the upstream conversation:
// a synthetic user message (guest text turns, manager-reply delivery) or a
// function call's output.
type conversationItemCreate struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []contentPart `json:"content,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// errorFrame is sent to the guest before closing when a session cannot be
// established for a non-authorization reason.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newUserTextItem(text string) conversationItemCreate {
	return conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    "user",
			Content: []contentPart{{Type: "input_text", Text: text}},
		},
	}
}

func newFunctionCallOutput(callID, output string) conversationItemCreate {
	return conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
}

func newResponseCreate() map[string]string {
	return map[string]string{"type": "response.create"}
}
