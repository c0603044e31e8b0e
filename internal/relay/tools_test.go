package relay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/novahotels/concierge/domain/entities"
)

func newTestExecutor(requests *fakeRequestRepo, feedback *fakeFeedbackRepo, memory *fakeMemoryStore) *ToolExecutor {
	return NewToolExecutor(requests, feedback, memory, "Hotel-Guest", "welcome123", zap.NewNop())
}

func TestExecuteLogRequest(t *testing.T) {
	requests := &fakeRequestRepo{}
	memory := &fakeMemoryStore{}
	executor := newTestExecutor(requests, &fakeFeedbackRepo{}, memory)

	tctx := ToolContext{GuestID: "g1", RoomNumber: "204"}
	out, err := executor.Execute(context.Background(), "log_request",
		map[string]any{"type": "complaint", "description": "AC broken"}, tctx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(requests.created) != 1 {
		t.Fatalf("created %d requests, want 1", len(requests.created))
	}
	created := requests.created[0]
	if created.Type != entities.RequestTypeComplaint {
		t.Errorf("type = %q, want complaint", created.Type)
	}
	if created.Description != "AC broken" || created.GuestID != "g1" || created.RoomNumber != "204" {
		t.Errorf("unexpected record: %+v", created)
	}

	if len(memory.added) != 1 || memory.added[0].Content != "Complaint: AC broken" {
		t.Errorf("memory entries = %+v, want one complaint entry", memory.added)
	}

	if !strings.Contains(out, "I've logged your complaint") {
		t.Errorf("confirmation = %q", out)
	}
}

func TestExecuteLogRequestStorageFailure(t *testing.T) {
	requests := &fakeRequestRepo{createErr: errors.New("mongo down")}
	memory := &fakeMemoryStore{}
	executor := newTestExecutor(requests, &fakeFeedbackRepo{}, memory)

	_, err := executor.Execute(context.Background(), "log_request",
		map[string]any{"type": "request", "description": "Extra towels"},
		ToolContext{GuestID: "g1", RoomNumber: "204"})
	if err == nil {
		t.Fatal("storage failure must surface as an error")
	}
	if len(memory.added) != 0 {
		t.Error("no memory should be written when the record was not created")
	}
}

func TestExecuteLogRequestMemoryFailureIsIgnored(t *testing.T) {
	requests := &fakeRequestRepo{}
	memory := &fakeMemoryStore{addErr: errors.New("backboard down")}
	executor := newTestExecutor(requests, &fakeFeedbackRepo{}, memory)

	out, err := executor.Execute(context.Background(), "log_request",
		map[string]any{"type": "request", "description": "Extra towels"},
		ToolContext{GuestID: "g1", RoomNumber: "204"})
	if err != nil {
		t.Fatalf("memory failure must not fail the tool: %v", err)
	}
	if !strings.Contains(out, "I've logged your request") {
		t.Errorf("confirmation = %q", out)
	}
}

func TestExecuteRequestAmenity(t *testing.T) {
	requests := &fakeRequestRepo{}
	executor := newTestExecutor(requests, &fakeFeedbackRepo{}, &fakeMemoryStore{})

	out, err := executor.Execute(context.Background(), "request_amenity",
		map[string]any{"item": "extra pillows"},
		ToolContext{GuestID: "g1", RoomNumber: "204"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(requests.created) != 1 {
		t.Fatalf("created %d requests, want 1", len(requests.created))
	}
	if requests.created[0].Description != "Request amenity: extra pillows" {
		t.Errorf("description = %q", requests.created[0].Description)
	}
	if requests.created[0].Type != entities.RequestTypeRequest {
		t.Errorf("type = %q, want request", requests.created[0].Type)
	}
	if !strings.Contains(out, "I've logged your request") {
		t.Errorf("confirmation = %q", out)
	}
}

func TestExecuteGetWifiInfo(t *testing.T) {
	executor := newTestExecutor(&fakeRequestRepo{}, &fakeFeedbackRepo{}, &fakeMemoryStore{})

	out, err := executor.Execute(context.Background(), "get_wifi_info", nil, ToolContext{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "Hotel-Guest") || !strings.Contains(out, "welcome123") {
		t.Errorf("wifi output = %q", out)
	}
}

func TestExecuteStorePreference(t *testing.T) {
	memory := &fakeMemoryStore{}
	executor := newTestExecutor(&fakeRequestRepo{}, &fakeFeedbackRepo{}, memory)

	_, err := executor.Execute(context.Background(), "store_preference",
		map[string]any{"preference": "late housekeeping"},
		ToolContext{GuestID: "g1", RoomNumber: "204"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(memory.added) != 1 || memory.added[0].Content != "Preference: late housekeeping" {
		t.Errorf("memory entries = %+v", memory.added)
	}
}

func TestExecuteStorePreferenceEmpty(t *testing.T) {
	memory := &fakeMemoryStore{}
	executor := newTestExecutor(&fakeRequestRepo{}, &fakeFeedbackRepo{}, memory)

	out, err := executor.Execute(context.Background(), "store_preference",
		map[string]any{"preference": "   "}, ToolContext{GuestID: "g1"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(memory.added) != 0 {
		t.Error("empty preference must not be stored")
	}
	if !strings.Contains(out, "Nothing to remember") {
		t.Errorf("output = %q", out)
	}
}

func TestExecuteSubmitFeedback(t *testing.T) {
	feedback := &fakeFeedbackRepo{}
	executor := newTestExecutor(&fakeRequestRepo{}, feedback, &fakeMemoryStore{})

	out, err := executor.Execute(context.Background(), "submit_feedback",
		map[string]any{"content": "Great stay", "source": "voice"},
		ToolContext{GuestID: "g1", RoomNumber: "204"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(feedback.created) != 1 {
		t.Fatalf("created %d feedback records, want 1", len(feedback.created))
	}
	if feedback.created[0].Content != "Great stay" || feedback.created[0].Source != entities.FeedbackSourceVoice {
		t.Errorf("unexpected record: %+v", feedback.created[0])
	}
	if !strings.Contains(out, "Thank you") {
		t.Errorf("confirmation = %q", out)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	executor := newTestExecutor(&fakeRequestRepo{}, &fakeFeedbackRepo{}, &fakeMemoryStore{})

	out, err := executor.Execute(context.Background(), "open_pod_bay_doors", nil, ToolContext{})
	if err != nil {
		t.Fatalf("unknown tool must not error: %v", err)
	}
	if out != "Unknown tool: open_pod_bay_doors" {
		t.Errorf("output = %q", out)
	}
}

func TestToolSchemas(t *testing.T) {
	schemas := ToolSchemas()
	if len(schemas) != len(toolTable) {
		t.Fatalf("got %d schemas, want %d", len(schemas), len(toolTable))
	}

	names := make(map[string]bool)
	for _, s := range schemas {
		if s.Type != "function" {
			t.Errorf("schema %q type = %q, want function", s.Name, s.Type)
		}
		names[s.Name] = true
	}
	for _, want := range []string{"log_request", "get_wifi_info", "request_amenity", "store_preference", "submit_feedback"} {
		if !names[want] {
			t.Errorf("missing tool schema %q", want)
		}
	}
}
