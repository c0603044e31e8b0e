// Package relay implements the realtime session relay: it authorizes a
// guest WebSocket connection, opens and configures a companion connection
// to the upstream conversational AI service, pumps messages both ways, and
// intercepts specific upstream events to run tools and record memories.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/novahotels/concierge/adapters/backboard"
	"github.com/novahotels/concierge/domain/entities"
	"github.com/novahotels/concierge/domain/repositories"
	"github.com/novahotels/concierge/internal/config"
)

const (
	// Time allowed to write a message to either peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the guest.
	pongWait = 60 * time.Second

	// Send pings to the guest with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the guest.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Guest utterances recorded as memories are cut at this many runes.
	transcriptMaxRunes = 320

	// Bound on a single tool call's side effects.
	toolTimeout = 30 * time.Second
)

// WebSocket close codes for authorization rejections. 4004 marks an
// unknown guest, 4003 a guest whose current state forbids a session.
const (
	closeGuestNotFound = 4004
	closeNotAllowed    = 4003
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The guest app is served from a different origin than the API.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub holds the shared dependencies for all realtime sessions. Per-session
// state lives in Session; the hub only tracks which sessions are live.
type Hub struct {
	directory repositories.GuestDirectory
	unlocks   repositories.RoomUnlockStore
	requests  repositories.RequestRepository
	memory    repositories.MemoryStore
	tools     *ToolExecutor
	cfg       config.Config
	logger    *zap.Logger

	mu     sync.RWMutex
	active map[string]*Session
}

// NewHub creates a relay hub.
func NewHub(
	directory repositories.GuestDirectory,
	unlocks repositories.RoomUnlockStore,
	requests repositories.RequestRepository,
	memory repositories.MemoryStore,
	tools *ToolExecutor,
	cfg config.Config,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		directory: directory,
		unlocks:   unlocks,
		requests:  requests,
		memory:    memory,
		tools:     tools,
		cfg:       cfg,
		logger:    logger,
		active:    make(map[string]*Session),
	}
}

// ActiveSessions returns the number of live realtime sessions.
func (h *Hub) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active)
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.active[s.ID] = s
	h.mu.Unlock()
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	delete(h.active, s.ID)
	h.mu.Unlock()
}

// HandleRealtime handles the realtime connect endpoint. A missing guest
// token is rejected with HTTP 401 before the upgrade; every later
// rejection happens over the upgraded socket with a close code so the
// guest app can show the reason.
func (h *Hub) HandleRealtime(c echo.Context) error {
	token := c.QueryParam("guest_token")
	if token == "" {
		token = c.QueryParam("guestId")
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "guest_token required"})
	}
	mode := ParseOutputMode(c.QueryParam("output_mode"))

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	go h.serve(conn, token, mode)
	return nil
}

// serve runs one guest connection from authorization to teardown.
func (h *Hub) serve(guestConn *websocket.Conn, token string, mode OutputMode) {
	sess := NewSession(mode)
	logger := h.logger.With(zap.String("sessionID", sess.ID))

	ctx := context.Background()

	guest, err := h.authorize(ctx, token)
	if err != nil {
		var rej *rejection
		if errors.As(err, &rej) {
			logger.Info("Session rejected",
				zap.Int("code", rej.code),
				zap.String("reason", rej.reason))
			closeWithReason(guestConn, rej.code, rej.reason)
		} else {
			logger.Error("Authorization lookup failed", zap.Error(err))
			closeWithReason(guestConn, websocket.CloseInternalServerErr, "internal error")
		}
		sess.Transition(StateRejected)
		return
	}

	pending, err := h.requests.PendingReplies(ctx, guest.ID)
	if err != nil {
		// Replies are delivered on a later session if this lookup fails.
		logger.Warn("Failed to load pending manager replies", zap.Error(err))
		pending = nil
	}

	if err := sess.Authorize(guest, pending); err != nil {
		logger.Error("Session state error", zap.Error(err))
		closeWithReason(guestConn, websocket.CloseInternalServerErr, "internal error")
		return
	}

	logger = logger.With(
		zap.String("guestID", guest.ID),
		zap.String("roomNumber", guest.RoomNumber))
	logger.Info("Session authorized",
		zap.String("outputMode", string(mode)),
		zap.Int("pendingReplies", len(pending)))

	if h.cfg.OpenAIAPIKey == "" {
		sendErrorFrame(guestConn, "Realtime not configured. Add OPENAI_API_KEY to the backend environment and restart.")
		closeWithReason(guestConn, websocket.ClosePolicyViolation, "realtime not configured")
		sess.Transition(StateRejected)
		return
	}

	instructions := h.buildSessionInstructions(ctx, guest)

	if err := sess.Transition(StateUpstreamConnecting); err != nil {
		logger.Error("Session state error", zap.Error(err))
		closeWithReason(guestConn, websocket.CloseInternalServerErr, "internal error")
		return
	}

	upstreamConn, err := h.dialUpstream(ctx)
	if err != nil {
		logger.Error("Upstream connection failed", zap.Error(err))
		sendErrorFrame(guestConn, "Could not reach the realtime service.")
		closeWithReason(guestConn, websocket.ClosePolicyViolation, dialCloseReason(err))
		sess.Transition(StateRejected)
		return
	}

	sess.Transition(StateActive)
	h.register(sess)
	logger.Info("Session active")

	conn := &connection{
		hub:          h,
		sess:         sess,
		guest:        guestConn,
		upstream:     upstreamConn,
		guestSend:    make(chan []byte, 256),
		upstreamSend: make(chan []byte, 256),
		done:         make(chan struct{}),
		toolCtx:      ToolContext{GuestID: guest.ID, RoomNumber: guest.RoomNumber},
		logger:       logger,
	}

	// The session configuration must be the first outbound frame.
	conn.enqueueUpstream(h.sessionConfigFrame(sess, instructions))

	go conn.guestWritePump()
	go conn.upstreamWritePump()
	go conn.upstreamReadLoop()
	conn.guestReadLoop()
}

// rejection is an authorization failure with its close code and
// guest-visible reason.
type rejection struct {
	code   int
	reason string
}

func (r *rejection) Error() string {
	return r.reason
}

// authorize runs the ordered session checks. The order is contractual:
// unknown guest, then checked out, then not checked in, then room key not
// scanned.
func (h *Hub) authorize(ctx context.Context, token string) (*entities.Guest, error) {
	guest, err := h.directory.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if guest == nil {
		return nil, &rejection{code: closeGuestNotFound, reason: "Guest not found"}
	}
	if guest.CheckedOut {
		return nil, &rejection{code: closeNotAllowed, reason: "Account disabled"}
	}
	if !guest.CheckedIn {
		return nil, &rejection{code: closeNotAllowed, reason: "Not checked in"}
	}
	unlocked, err := h.unlocks.IsUnlocked(ctx, guest.RoomNumber)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, &rejection{code: closeNotAllowed, reason: "Room key not scanned yet"}
	}
	return guest, nil
}

// buildSessionInstructions loads the guest's memory summary and assembles
// the upstream instructions. Memory failures degrade to an empty history
// rather than blocking the session.
func (h *Hub) buildSessionInstructions(ctx context.Context, guest *entities.Guest) string {
	memories, err := h.memory.ForGuest(ctx, guest.ID)
	if err != nil {
		h.logger.Warn("Failed to load guest memories",
			zap.String("guestID", guest.ID),
			zap.Error(err))
		memories = nil
	}

	return buildInstructions(instructionInput{
		Base:           h.cfg.Instructions,
		WelcomeMessage: h.cfg.WelcomeMessage,
		GuestFirstName: guest.FirstName,
		RoomNumber:     guest.RoomNumber,
		MemorySummary:  backboard.Summary(memories, h.cfg.MemoryContextLimit),
	})
}

// dialUpstream opens the WebSocket to the realtime AI service, bounded by
// the configured timeout so a stalled upstream cannot leave the guest
// hanging.
func (h *Hub) dialUpstream(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, h.cfg.UpstreamTimeout)
	defer cancel()

	endpoint := h.cfg.RealtimeURL + "?model=" + url.QueryEscape(h.cfg.RealtimeModel)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+h.cfg.OpenAIAPIKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// dialCloseReason maps an upstream dial failure to the guest-visible
// close reason. A timeout can hit either before the TCP connect (context
// deadline) or mid-handshake (net deadline); anything else means the
// endpoint or credentials are wrong, not slow.
func dialCloseReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return "connection timed out"
	}
	return "could not reach the realtime service"
}

// sessionConfigFrame builds the session.update frame declaring modality,
// instructions, tools, and audio parameters.
func (h *Hub) sessionConfigFrame(sess *Session, instructions string) []byte {
	modalities := []string{"audio"}
	if sess.OutputMode == OutputModeText {
		modalities = []string{"text"}
	}

	var transcription *transcriptionConfig
	if h.cfg.InputLanguage != "" {
		transcription = &transcriptionConfig{Model: "whisper-1", Language: h.cfg.InputLanguage}
	} else {
		transcription = &transcriptionConfig{Model: "whisper-1"}
	}

	frame := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			Type:             "realtime",
			OutputModalities: modalities,
			Instructions:     instructions,
			Tools:            ToolSchemas(),
			ToolChoice:       "auto",
			Audio: audioConfig{
				Input: audioInput{
					Format:        audioFormat{Type: "audio/pcm", Rate: 24000},
					Transcription: transcription,
					TurnDetection: turnDetection{
						Type:              "server_vad",
						Threshold:         h.cfg.TurnThreshold,
						PrefixPaddingMs:   h.cfg.TurnPrefixMs,
						SilenceDurationMs: h.cfg.TurnSilenceMs,
					},
				},
				Output: audioOutput{
					Format: audioFormat{Type: "audio/pcm", Rate: 24000},
					Voice:  h.cfg.Voice,
				},
			},
		},
	}

	payload, _ := json.Marshal(frame)
	return payload
}

// connection is the live wiring of one active session: both sockets, their
// outbound queues, and teardown state.
type connection struct {
	hub      *Hub
	sess     *Session
	guest    *websocket.Conn
	upstream *websocket.Conn

	guestSend    chan []byte
	upstreamSend chan []byte

	done      chan struct{}
	closeOnce sync.Once

	toolCtx ToolContext
	logger  *zap.Logger
}

// teardown closes both sides together. Whichever side fails or closes
// first funnels here; the other socket is closed in the same path so no
// half-open connection survives.
func (c *connection) teardown() {
	c.closeOnce.Do(func() {
		c.sess.Transition(StateClosing)
		close(c.done)
		c.guest.Close()
		c.upstream.Close()
		c.sess.Transition(StateClosed)
		c.hub.unregister(c.sess)
		c.logger.Info("Session closed")
	})
}

func (c *connection) enqueueGuest(payload []byte) {
	select {
	case c.guestSend <- payload:
	case <-c.done:
	}
}

func (c *connection) enqueueUpstream(payload []byte) {
	select {
	case c.upstreamSend <- payload:
	case <-c.done:
	}
}

func (c *connection) enqueueUpstreamJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal upstream frame", zap.Error(err))
		return
	}
	c.enqueueUpstream(payload)
}

// guestWritePump writes queued frames to the guest and keeps the
// connection alive with pings, mirroring the standard single-writer
// pattern gorilla requires.
func (c *connection) guestWritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case payload := <-c.guestSend:
			c.guest.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.guest.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("Guest write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.guest.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.guest.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// upstreamWritePump is the single writer for the upstream socket. All
// producers (guest read loop, interceptions, tool completions) enqueue;
// channel order is delivery order.
func (c *connection) upstreamWritePump() {
	defer c.teardown()

	for {
		select {
		case payload := <-c.upstreamSend:
			c.upstream.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.upstream.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("Upstream write failed", zap.Error(err))
				return
			}
		case <-c.done:
			return
		}
	}
}

// guestReadLoop pumps guest frames to the upstream, expanding text-turn
// submissions into the item-create / response-create pair.
func (c *connection) guestReadLoop() {
	defer c.teardown()

	c.guest.SetReadLimit(maxMessageSize)
	c.guest.SetReadDeadline(time.Now().Add(pongWait))
	c.guest.SetPongHandler(func(string) error {
		c.guest.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.guest.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Guest socket error", zap.Error(err))
			}
			return
		}
		c.handleGuestMessage(message)
	}
}

func (c *connection) handleGuestMessage(raw []byte) {
	var msg guestMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Opaque payload; forward byte-for-byte.
		c.enqueueUpstream(raw)
		return
	}

	switch msg.Type {
	case guestEventText:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return
		}
		c.enqueueUpstreamJSON(newUserTextItem(text))
		c.enqueueUpstreamJSON(newResponseCreate())
	case guestEventAudioAppend:
		c.enqueueUpstream(raw)
	default:
		c.enqueueUpstream(raw)
	}
}

// upstreamReadLoop pumps upstream frames to the guest, intercepting the
// event types that drive welcomes, reply delivery, tool execution, and
// memory capture. Forwarding is never skipped.
func (c *connection) upstreamReadLoop() {
	defer c.teardown()

	for {
		_, message, err := c.upstream.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Upstream socket error", zap.Error(err))
			}
			return
		}
		c.handleUpstreamMessage(message)
	}
}

func (c *connection) handleUpstreamMessage(raw []byte) {
	var ev upstreamEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.enqueueGuest(raw)
		return
	}

	switch ev.Type {
	case eventSessionUpdated:
		c.handleSessionReady()
	case eventResponseDone:
		c.handleResponseDone(&ev)
	case eventFunctionCallArgsDone:
		if ev.Name != "" && ev.CallID != "" {
			c.dispatchTool(ev.CallID, ev.Name, ev.Arguments)
		}
	case eventInputTranscriptComplete:
		if transcript := strings.TrimSpace(ev.Transcript); transcript != "" {
			go c.recordUtterance(transcript)
		}
	}

	c.enqueueGuest(raw)
}

// handleSessionReady runs the one-time session-start injection: deliver
// pending manager replies as a synthetic user turn, then ask the agent to
// speak. Guarded so a repeated session.updated cannot re-trigger it.
func (c *connection) handleSessionReady() {
	welcomeConfigured := strings.TrimSpace(c.hub.cfg.WelcomeMessage) != ""
	if !c.sess.TriggerWelcome(welcomeConfigured) {
		return
	}

	if pending := c.sess.PendingReplies(); len(pending) > 0 {
		c.enqueueUpstreamJSON(newUserTextItem(buildReplyDeliveryText(pending)))
	}
	c.enqueueUpstreamJSON(newResponseCreate())
}

func (c *connection) handleResponseDone(ev *upstreamEvent) {
	// Ids are taken synchronously before the write, so a second
	// response.done finds the list empty and cannot re-mark.
	if ids := c.sess.TakePendingReplyIDs(); len(ids) > 0 {
		go c.markRepliesShown(ids)
	}

	if ev.Response == nil {
		return
	}
	for _, item := range ev.Response.Output {
		if item.Type == "function_call" && item.CallID != "" && item.Name != "" {
			c.dispatchTool(item.CallID, item.Name, item.Arguments)
		}
	}
}

// dispatchTool executes one tool call at most once per call id and always
// answers the upstream with a function output followed by a
// response-create, so the agent's turn can complete even on failure.
func (c *connection) dispatchTool(callID, name, rawArgs string) {
	if !c.sess.MarkDispatched(callID) {
		c.logger.Debug("Duplicate tool call ignored", zap.String("callID", callID))
		return
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			c.logger.Warn("Malformed tool arguments",
				zap.String("tool", name),
				zap.Error(err))
			args = map[string]any{}
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
		defer cancel()

		output, err := c.hub.tools.Execute(ctx, name, args, c.toolCtx)
		if err != nil {
			c.logger.Error("Tool execution failed",
				zap.String("tool", name),
				zap.String("callID", callID),
				zap.Error(err))
			output = err.Error()
		} else {
			c.logger.Info("Tool executed",
				zap.String("tool", name),
				zap.String("callID", callID))
		}

		c.enqueueUpstreamJSON(newFunctionCallOutput(callID, output))
		c.enqueueUpstreamJSON(newResponseCreate())
	}()
}

func (c *connection) markRepliesShown(ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.hub.requests.MarkRepliesShown(ctx, ids); err != nil {
		c.logger.Error("Failed to mark manager replies shown",
			zap.Strings("requestIDs", ids),
			zap.Error(err))
		return
	}
	c.logger.Info("Manager replies marked shown", zap.Int("count", len(ids)))
}

// recordUtterance stores what the guest said as a memory entry, bounded so
// a long utterance cannot grow memory without limit. Failures are logged
// and swallowed.
func (c *connection) recordUtterance(transcript string) {
	runes := []rune(transcript)
	if len(runes) > transcriptMaxRunes {
		transcript = string(runes[:transcriptMaxRunes]) + "…"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.hub.memory.Add(ctx, c.toolCtx.GuestID, c.toolCtx.RoomNumber, "Guest said: "+transcript); err != nil {
		c.logger.Warn("Failed to record guest utterance", zap.Error(err))
	}
}

// closeWithReason sends a close frame carrying a machine-readable code and
// human-readable reason, then closes the socket.
func closeWithReason(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}

// sendErrorFrame sends a guest-visible error message before the socket is
// closed, used for configuration and upstream failures that deserve more
// explanation than a close reason.
func sendErrorFrame(conn *websocket.Conn, message string) {
	payload, _ := json.Marshal(errorFrame{Type: "error", Error: message})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, payload)
}
