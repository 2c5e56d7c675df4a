package templates

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

// ListInput defines the list_nuclei_templates parameters.
type ListInput struct {
	Project string `json:"project,omitempty" jsonschema:"Filter templates by project identifier"`
	Page    int    `json:"page,omitempty" validate:"min=0" jsonschema:"Page number"`
	Format  string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// CreateInput defines the create_nuclei_template parameters.
type CreateInput struct {
	Name    string `json:"name" validate:"required" jsonschema:"Template name"`
	Project string `json:"project" validate:"required" jsonschema:"Project identifier the template belongs to"`
	Content string `json:"content,omitempty" jsonschema:"Template YAML content"`
}

// UploadInput defines the upload_nuclei_template parameters.
type UploadInput struct {
	Path    string `json:"path" validate:"required" jsonschema:"Path to the template YAML file"`
	Project string `json:"project" validate:"required" jsonschema:"Project identifier to upload into"`
}

// AssignInput defines the assign_nuclei_template parameters.
type AssignInput struct {
	TargetID   string `json:"target_id" validate:"required" jsonschema:"Target ID to assign the template to"`
	TemplateID string `json:"template_id" validate:"required" jsonschema:"Template ID to assign"`
}

// Tool implements the nuclei template tools.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
}

func (t *Tool) Register(srv *server.Server) error {
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "list_nuclei_templates",
		Description: "List the custom nuclei templates uploaded to the Specter platform.",
	}, tools.Chain(srv.Storage(), t.client, "list_nuclei_templates", true, t.ListHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "create_nuclei_template",
		Description: "Create a custom nuclei template by name and content.",
	}, tools.Chain(srv.Storage(), t.client, "create_nuclei_template", true, t.CreateHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "upload_nuclei_template",
		Description: "Upload a nuclei template YAML file from disk to a project.",
	}, tools.Chain(srv.Storage(), t.client, "upload_nuclei_template", true, t.UploadHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "assign_nuclei_template",
		Description: "Assign an uploaded nuclei template to a target so it runs on the next scan.",
	}, tools.Chain(srv.Storage(), t.client, "assign_nuclei_template", true, t.AssignHandler))

	t.logger.Debug().Msg("nuclei template tools registered")

	return nil
}

func (t *Tool) ListHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.ListNucleiTemplates(ctx, platform.ListNucleiTemplatesOptions{
		Project: input.Project,
		Page:    input.Page,
	}, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) CreateHandler(ctx context.Context, _ *mcp.CallToolRequest, input CreateInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.CreateNucleiTemplate(ctx, input.Name, input.Project, input.Content)
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) UploadHandler(ctx context.Context, _ *mcp.CallToolRequest, input UploadInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	t.logger.Info().Msgf("uploading template %s to project %s", input.Path, input.Project)
	out, err := t.client.UploadNucleiTemplate(ctx, input.Path, input.Project)
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) AssignHandler(ctx context.Context, _ *mcp.CallToolRequest, input AssignInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.AssignNucleiTemplate(ctx, input.TargetID, input.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

// New creates the nuclei template tools.
func New(logger zerolog.Logger, client *platform.Client) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "templates").Logger(),
		validator: validator.New(),
		client:    client,
	}
}
