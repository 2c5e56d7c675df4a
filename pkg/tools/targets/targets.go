package targets

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/specterhq/specter-mcp/pkg/platform"
	"github.com/specterhq/specter-mcp/pkg/server"
	"github.com/specterhq/specter-mcp/pkg/tools"
)

// ListInput defines the list_targets parameters.
type ListInput struct {
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// GetInput defines the get_target parameters.
type GetInput struct {
	TargetID string `json:"target_id" validate:"required" jsonschema:"Target ID to fetch"`
	Format   string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// CreateInput defines the create_target parameters.
type CreateInput struct {
	Name    string `json:"name" validate:"required" jsonschema:"Name of the new target"`
	URL     string `json:"url" validate:"required,url" jsonschema:"URL of the asset to register"`
	Project string `json:"project,omitempty" jsonschema:"Project identifier to register the target under"`
	Format  string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// DeleteInput defines the delete_target parameters.
type DeleteInput struct {
	TargetID string `json:"target_id" validate:"required" jsonschema:"Target ID to delete"`
	Format   string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// Tool implements the target management tools.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
}

func (t *Tool) Register(srv *server.Server) error {
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "list_targets",
		Description: "List the scannable targets registered on the Specter platform.",
	}, tools.Chain(srv.Storage(), t.client, "list_targets", true, t.ListHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "get_target",
		Description: "Fetch a single Specter target by ID.",
	}, tools.Chain(srv.Storage(), t.client, "get_target", true, t.GetHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "create_target",
		Description: "Register a new scannable target (web or API asset) on the Specter platform.",
	}, tools.Chain(srv.Storage(), t.client, "create_target", true, t.CreateHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "delete_target",
		Description: "Delete a Specter target by ID.",
	}, tools.Chain(srv.Storage(), t.client, "delete_target", true, t.DeleteHandler))

	t.logger.Debug().Msg("target tools registered")

	return nil
}

func (t *Tool) ListHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.ListTargets(ctx, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) GetHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.GetTarget(ctx, input.TargetID, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) CreateHandler(ctx context.Context, _ *mcp.CallToolRequest, input CreateInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	t.logger.Info().Msgf("creating target %s (%s)", input.Name, input.URL)
	out, err := t.client.CreateTarget(ctx, input.Name, input.URL, platform.CreateTargetOptions{
		Project: input.Project,
	}, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) DeleteHandler(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	t.logger.Info().Msgf("deleting target %s", input.TargetID)
	out, err := t.client.DeleteTarget(ctx, input.TargetID, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

// New creates the target management tools.
func New(logger zerolog.Logger, client *platform.Client) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "targets").Logger(),
		validator: validator.New(),
		client:    client,
	}
}
