package relay

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/novahotels/concierge/domain/entities"
	"github.com/novahotels/concierge/domain/repositories"
)

// ToolContext scopes a tool invocation to the guest and room of the
// session that triggered it.
type ToolContext struct {
	GuestID    string
	RoomNumber string
}

// ToolSchema is the function declaration advertised to the upstream AI.
// The descriptions materially steer the model's behavior; treat them as
// part of the contract, not documentation.
type ToolSchema struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type toolHandler func(ctx context.Context, e *ToolExecutor, args map[string]any, tctx ToolContext) (string, error)

type toolDefinition struct {
	schema  ToolSchema
	handler toolHandler
}

// toolTable is the single source of truth for the tool set: the schema
// array sent upstream and the dispatch table are both derived from it, so
// adding a tool is one entry here.
var toolTable = []toolDefinition{
	{
		schema: ToolSchema{
			Type:        "function",
			Name:        "log_request",
			Description: "Log a guest request or complaint. Use for any request (e.g. towels, room service) or complaint. After calling, always confirm to the guest that it was logged.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":        map[string]any{"type": "string", "enum": []string{"request", "complaint"}},
					"description": map[string]any{"type": "string"},
				},
				"required": []string{"type", "description"},
			},
		},
		handler: handleLogRequest,
	},
	{
		schema: ToolSchema{
			Type:        "function",
			Name:        "get_wifi_info",
			Description: "Get the hotel WiFi network name and password. After calling, always tell the guest the network and password out loud.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		handler: handleGetWifiInfo,
	},
	{
		schema: ToolSchema{
			Type:        "function",
			Name:        "request_amenity",
			Description: "Log a request for an amenity (e.g. extra towels, pillows). After calling, always confirm to the guest that the request was logged.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"item": map[string]any{"type": "string"},
				},
				"required": []string{"item"},
			},
		},
		handler: handleRequestAmenity,
	},
	{
		schema: ToolSchema{
			Type:        "function",
			Name:        "store_preference",
			Description: "Remember a preference the guest states (e.g. extra pillows, late housekeeping). Use whenever the guest expresses a lasting preference.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"preference": map[string]any{"type": "string"},
				},
				"required": []string{"preference"},
			},
		},
		handler: handleStorePreference,
	},
	{
		schema: ToolSchema{
			Type:        "function",
			Name:        "submit_feedback",
			Description: "Record feedback the guest gives about their stay. After calling, always thank the guest for their feedback.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{"type": "string"},
					"source":  map[string]any{"type": "string", "enum": []string{"text", "voice"}},
				},
				"required": []string{"content"},
			},
		},
		handler: handleSubmitFeedback,
	},
}

// ToolSchemas returns the function declarations for the session
// configuration frame.
func ToolSchemas() []ToolSchema {
	schemas := make([]ToolSchema, len(toolTable))
	for i, def := range toolTable {
		schemas[i] = def.schema
	}
	return schemas
}

// ToolExecutor performs the side effect behind one tool call. It is
// stateless; all per-session state stays in the session.
type ToolExecutor struct {
	requests     repositories.RequestRepository
	feedback     repositories.FeedbackRepository
	memory       repositories.MemoryStore
	wifiName     string
	wifiPassword string
	logger       *zap.Logger
}

// NewToolExecutor creates a tool executor backed by the given stores.
func NewToolExecutor(
	requests repositories.RequestRepository,
	feedback repositories.FeedbackRepository,
	memory repositories.MemoryStore,
	wifiName string,
	wifiPassword string,
	logger *zap.Logger,
) *ToolExecutor {
	return &ToolExecutor{
		requests:     requests,
		feedback:     feedback,
		memory:       memory,
		wifiName:     wifiName,
		wifiPassword: wifiPassword,
		logger:       logger,
	}
}

// Execute dispatches one tool call and returns the function output string
// for the upstream conversation. An unknown tool name is not an error: the
// AI always needs some output so its turn can complete.
func (e *ToolExecutor) Execute(ctx context.Context, name string, args map[string]any, tctx ToolContext) (string, error) {
	for _, def := range toolTable {
		if def.schema.Name == name {
			return def.handler(ctx, e, args, tctx)
		}
	}
	e.logger.Warn("Unknown tool requested",
		zap.String("tool", name),
		zap.String("guestID", tctx.GuestID))
	return fmt.Sprintf("Unknown tool: %s", name), nil
}

func handleLogRequest(ctx context.Context, e *ToolExecutor, args map[string]any, tctx ToolContext) (string, error) {
	reqType := entities.RequestTypeRequest
	if stringArg(args, "type") == string(entities.RequestTypeComplaint) {
		reqType = entities.RequestTypeComplaint
	}
	description := strings.TrimSpace(stringArg(args, "description"))

	return e.logRequest(ctx, tctx, reqType, description)
}

func (e *ToolExecutor) logRequest(ctx context.Context, tctx ToolContext, reqType entities.RequestType, description string) (string, error) {
	request := entities.NewRequest(tctx.GuestID, tctx.RoomNumber, reqType, description)
	if err := e.requests.Create(ctx, request); err != nil {
		return "", fmt.Errorf("failed to log %s: %w", reqType, err)
	}

	// Memory is an enhancement; a failed write never blocks the tool result.
	content := fmt.Sprintf("Request: %s", description)
	if reqType == entities.RequestTypeComplaint {
		content = fmt.Sprintf("Complaint: %s", description)
	}
	if err := e.memory.Add(ctx, tctx.GuestID, tctx.RoomNumber, content); err != nil {
		e.logger.Warn("Failed to record request memory",
			zap.String("guestID", tctx.GuestID),
			zap.Error(err))
	}

	return fmt.Sprintf("Done. Tell the guest: I've logged your %s and the team has been notified. If the manager replies, you'll see their reply the next time you open Nova.", reqType), nil
}

func handleGetWifiInfo(_ context.Context, e *ToolExecutor, _ map[string]any, _ ToolContext) (string, error) {
	return fmt.Sprintf("Tell the guest: The WiFi network is %s and the password is %s.", e.wifiName, e.wifiPassword), nil
}

func handleRequestAmenity(ctx context.Context, e *ToolExecutor, args map[string]any, tctx ToolContext) (string, error) {
	item := strings.TrimSpace(stringArg(args, "item"))
	return e.logRequest(ctx, tctx, entities.RequestTypeRequest, fmt.Sprintf("Request amenity: %s", item))
}

func handleStorePreference(ctx context.Context, e *ToolExecutor, args map[string]any, tctx ToolContext) (string, error) {
	preference := strings.TrimSpace(stringArg(args, "preference"))
	if preference == "" {
		return "Nothing to remember: the preference was empty.", nil
	}
	if err := e.memory.Add(ctx, tctx.GuestID, tctx.RoomNumber, fmt.Sprintf("Preference: %s", preference)); err != nil {
		return "", fmt.Errorf("failed to store preference: %w", err)
	}
	return "Done. Tell the guest: I'll remember that preference for the rest of their stay.", nil
}

func handleSubmitFeedback(ctx context.Context, e *ToolExecutor, args map[string]any, tctx ToolContext) (string, error) {
	content := strings.TrimSpace(stringArg(args, "content"))
	source := entities.FeedbackSourceText
	if stringArg(args, "source") == string(entities.FeedbackSourceVoice) {
		source = entities.FeedbackSourceVoice
	}

	feedback := entities.NewFeedback(tctx.GuestID, tctx.RoomNumber, content, source)
	if err := e.feedback.Create(ctx, feedback); err != nil {
		return "", fmt.Errorf("failed to submit feedback: %w", err)
	}

	return "Done. Tell the guest: Thank you, your feedback has been recorded and will be shared with the team.", nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
