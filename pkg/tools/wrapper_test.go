package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/specterhq/specter-mcp/pkg/models"
	"github.com/specterhq/specter-mcp/pkg/platform"
)

type testInput struct {
	TargetID string `json:"target_id"`
}

// memoryStore is an in-memory storage.Storage for wrapper tests.
type memoryStore struct {
	mu    sync.Mutex
	execs []models.ToolExecution
}

func (m *memoryStore) CreateToolExecution(_ context.Context, exec *models.ToolExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec.ID = uint(len(m.execs) + 1)
	m.execs = append(m.execs, *exec)
	return nil
}

func (m *memoryStore) GetToolExecution(_ context.Context, id uint) (*models.ToolExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.execs {
		if m.execs[i].ID == id {
			return &m.execs[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryStore) GetToolExecutions(_ context.Context, limit, offset int) ([]models.ToolExecution, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ToolExecution(nil), m.execs...), int64(len(m.execs)), nil
}

func (m *memoryStore) DeleteToolExecution(_ context.Context, id uint) error { return nil }

func (m *memoryStore) DeleteAllToolExecutions(_ context.Context) error { return nil }

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.execs)
}

type staticCred bool

func (s staticCred) HasCredential() bool { return bool(s) }

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected a content block")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestChain_NoCredentialShortCircuits(t *testing.T) {
	store := &memoryStore{}
	called := false
	handler := func(ctx context.Context, req *mcp.CallToolRequest, input testInput) (*mcp.CallToolResult, any, error) {
		called = true
		return TextResult("should not happen"), nil, nil
	}

	wrapped := Chain(store, staticCred(false), "list_targets", true, handler)

	result, _, err := wrapped(context.Background(), &mcp.CallToolRequest{}, testInput{TargetID: "t"})

	if err != nil {
		t.Fatalf("no error may cross the registry boundary, got: %v", err)
	}
	if called {
		t.Error("handler must not run without a credential")
	}
	if !result.IsError {
		t.Error("expected an error-flagged envelope")
	}
	if got := textOf(t, result); got != "Not authenticated. Run the authenticate tool first to create or load a platform credential." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestChain_CredentialHeldRunsHandler(t *testing.T) {
	store := &memoryStore{}
	handler := func(ctx context.Context, req *mcp.CallToolRequest, input testInput) (*mcp.CallToolResult, any, error) {
		return TextResult("targets"), nil, nil
	}

	wrapped := Chain(store, staticCred(true), "list_targets", true, handler)

	result, _, err := wrapped(context.Background(), &mcp.CallToolRequest{}, testInput{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.IsError {
		t.Error("expected a success envelope")
	}
	if got := textOf(t, result); got != "targets" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestCatchErrors_ConvertsErrorsToEnvelopes(t *testing.T) {
	handler := func(ctx context.Context, req *mcp.CallToolRequest, input testInput) (*mcp.CallToolResult, any, error) {
		return nil, nil, &platform.APIError{StatusCode: 500, Detail: "boom"}
	}

	wrapped := CatchErrors(handler)

	result, _, err := wrapped(context.Background(), &mcp.CallToolRequest{}, testInput{})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error-flagged envelope")
	}
	got := textOf(t, result)
	if got != "Error: API request failed with status 500: boom" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestWrapToolHandler_RecordsExecution(t *testing.T) {
	store := &memoryStore{}
	handler := func(ctx context.Context, req *mcp.CallToolRequest, input testInput) (*mcp.CallToolResult, any, error) {
		return TextResult("ok"), nil, nil
	}

	wrapped := WrapToolHandler(store, "get_target", handler)

	_, _, err := wrapped(context.Background(), &mcp.CallToolRequest{}, testInput{TargetID: "tgt-1"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Wait for async logging
	deadline := time.Now().Add(time.Second)
	for store.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	execs, total, _ := store.GetToolExecutions(context.Background(), 10, 0)
	if total != 1 {
		t.Fatalf("expected 1 execution logged, got %d", total)
	}
	if execs[0].ToolName != "get_target" {
		t.Errorf("expected tool name 'get_target', got %q", execs[0].ToolName)
	}
	if !execs[0].Success {
		t.Error("expected Success to be true")
	}
	if execs[0].InputJSON == "" || execs[0].InputJSON == "null" {
		t.Errorf("expected serialized input, got %q", execs[0].InputJSON)
	}
}

func TestWrapToolHandler_RecordsFailure(t *testing.T) {
	store := &memoryStore{}
	handler := func(ctx context.Context, req *mcp.CallToolRequest, input testInput) (*mcp.CallToolResult, any, error) {
		return nil, nil, errors.New("scan not found")
	}

	wrapped := WrapToolHandler(store, "get_scan_status", handler)

	_, _, err := wrapped(context.Background(), &mcp.CallToolRequest{}, testInput{})
	if err == nil {
		t.Fatal("expected the error to pass through the history wrapper")
	}

	deadline := time.Now().Add(time.Second)
	for store.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	execs, _, _ := store.GetToolExecutions(context.Background(), 10, 0)
	if len(execs) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(execs))
	}
	if execs[0].Success {
		t.Error("expected Success to be false")
	}
	if execs[0].ErrorMessage != "scan not found" {
		t.Errorf("unexpected error message: %q", execs[0].ErrorMessage)
	}
}
