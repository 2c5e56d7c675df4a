package projects

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

// ListInput defines the list_projects parameters.
type ListInput struct {
	Page   int    `json:"page,omitempty" validate:"min=0" jsonschema:"Page number"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// DetailsInput defines the get_project_details parameters.
type DetailsInput struct {
	Name string `json:"name" validate:"required" jsonschema:"Exact project name to look up"`
}

// Tool implements the project tools.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
}

func (t *Tool) Register(srv *server.Server) error {
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List the projects on the Specter platform.",
	}, tools.Chain(srv.Storage(), t.client, "list_projects", true, t.ListHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "get_project_details",
		Description: "Look a project up by its exact name.",
	}, tools.Chain(srv.Storage(), t.client, "get_project_details", true, t.DetailsHandler))

	t.logger.Debug().Msg("project tools registered")

	return nil
}

func (t *Tool) ListHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.ListProjects(ctx, platform.ListProjectsOptions{
		Page: input.Page,
	}, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) DetailsHandler(ctx context.Context, _ *mcp.CallToolRequest, input DetailsInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.GetProjectByName(ctx, input.Name)
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

// New creates the project tools.
func New(logger zerolog.Logger, client *platform.Client) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "projects").Logger(),
		validator: validator.New(),
		client:    client,
	}
}
