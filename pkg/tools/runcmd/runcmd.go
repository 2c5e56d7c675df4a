package runcmd

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

const toolName = "run_command"

// Input defines the run_command parameters.
type Input struct {
	Args   []string `json:"args" validate:"required,min=1" jsonschema:"Subcommand and arguments to pass to the specter CLI"`
	Format string   `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// Tool passes arbitrary subcommands through to the platform CLI, for
// operations not covered by a dedicated tool.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
}

func (t *Tool) Register(srv *server.Server) error {
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        toolName,
		Description: "Run an arbitrary specter CLI subcommand. Credential, output format and API endpoint flags are appended automatically.",
	}, tools.Chain(srv.Storage(), t.client, toolName, true, t.RunHandler))

	t.logger.Debug().Msg("run_command tool registered")

	return nil
}

func (t *Tool) RunHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	t.logger.Info().Msgf("running passthrough command: %s", platform.CommandLine("specter", input.Args))
	out, err := t.client.RunCommand(ctx, input.Args, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

// New creates the passthrough command tool.
func New(logger zerolog.Logger, client *platform.Client) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
		client:    client,
	}
}
