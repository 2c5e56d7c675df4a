package tools

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/specterhq/specter-mcp/pkg/models"
	"github.com/specterhq/specter-mcp/pkg/platform"
	"github.com/specterhq/specter-mcp/pkg/storage"
)

// Handler is the typed MCP tool handler shape every tool in this server uses.
type Handler[In any] = mcp.ToolHandlerFor[In, any]

// authRequiredMessage is what callers see when they invoke a platform tool
// before authenticating.
const authRequiredMessage = "Not authenticated. Run the authenticate tool first to create or load a platform credential."

// TextResult builds a single-text-block success envelope.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult builds a single-text-block error-flagged envelope.
func ErrorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// RequireCredential short-circuits a handler when no credential is held, so
// no subprocess or HTTP call is ever attempted unauthenticated.
func RequireCredential[In any](cred CredentialHolder, handler Handler[In]) Handler[In] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		if !cred.HasCredential() {
			return nil, nil, platform.ErrNotAuthenticated
		}
		return handler(ctx, req, input)
	}
}

// CatchErrors is the outermost wrapper: no error may cross into the protocol
// layer unconverted. Every handler error becomes an error-flagged text
// envelope.
func CatchErrors[In any](handler Handler[In]) Handler[In] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		result, output, err := handler(ctx, req, input)
		if err != nil {
			if errors.Is(err, platform.ErrNotAuthenticated) {
				return ErrorResult(authRequiredMessage), nil, nil
			}
			return ErrorResult("Error: " + err.Error()), nil, nil
		}
		return result, output, nil
	}
}

// WrapToolHandler records each execution in the history store. The write is
// asynchronous so slow storage never delays a tool response.
func WrapToolHandler[In any](
	store storage.Storage,
	toolName string,
	handler Handler[In],
) Handler[In] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, any, error) {
		startTime := time.Now()

		sessionID := ""
		if req != nil && req.Session != nil {
			sessionID = req.Session.ID()
		}

		inputJSON, _ := json.Marshal(input)

		result, output, err := handler(ctx, req, input)

		duration := time.Since(startTime)

		exec := &models.ToolExecution{
			SessionID:  sessionID,
			ToolName:   toolName,
			InputJSON:  string(inputJSON),
			DurationMs: duration.Milliseconds(),
			Success:    err == nil,
		}

		if err != nil {
			exec.ErrorMessage = err.Error()
		} else if result != nil {
			outputJSON, _ := json.Marshal(result)
			exec.OutputJSON = string(outputJSON)
		}

		// Using background context intentionally - the record should be
		// written even if the request is cancelled.
		go func() { //nolint:contextcheck
			_ = store.CreateToolExecution(context.Background(), exec)
		}()

		return result, output, err
	}
}

// Chain is the standard middleware stack for a platform tool: history
// logging around the credential preamble, error conversion outermost.
func Chain[In any](store storage.Storage, cred CredentialHolder, toolName string, requireCredential bool, handler Handler[In]) Handler[In] {
	h := handler
	if requireCredential {
		h = RequireCredential(cred, h)
	}
	return CatchErrors(WrapToolHandler(store, toolName, h))
}
