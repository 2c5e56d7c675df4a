package discover

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/specterhq/specter-mcp/pkg/platform"
	"github.com/specterhq/specter-mcp/pkg/server"
	"github.com/specterhq/specter-mcp/pkg/tools"
)

// Input defines the discover_api parameters.
type Input struct {
	Sources []string `json:"sources" validate:"required,min=1" jsonschema:"Source code files to extract API endpoints from; relative paths resolve against root"`
	Root    string   `json:"root" validate:"required" jsonschema:"Absolute project root directory"`
	Output  string   `json:"output,omitempty" jsonschema:"Path of the OpenAPI file to write"`
	Upload  bool     `json:"upload,omitempty" jsonschema:"Upload the extracted specification to the platform"`
	Verbose bool     `json:"verbose,omitempty" jsonschema:"Ignored; verbose discovery output is always suppressed"`
}

// PromptedInput is Input with root optional: when root is missing the tool
// responds with a prompt instead of an error.
type PromptedInput struct {
	Sources []string `json:"sources" validate:"required,min=1" jsonschema:"Source code files to extract API endpoints from; relative paths resolve against root"`
	Root    string   `json:"root,omitempty" jsonschema:"Absolute project root directory"`
	Output  string   `json:"output,omitempty" jsonschema:"Path of the OpenAPI file to write"`
	Upload  bool     `json:"upload,omitempty" jsonschema:"Upload the extracted specification to the platform"`
	Verbose bool     `json:"verbose,omitempty" jsonschema:"Ignored; verbose discovery output is always suppressed"`
}

// Tool implements the API discovery tools.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
}

func (t *Tool) Register(srv *server.Server) error {
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "discover_api",
		Description: "Extract an OpenAPI specification from source code files using the platform's endpoint discovery.",
	}, tools.Chain(srv.Storage(), t.client, "discover_api", true, t.DiscoverHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "discover_api_interactive",
		Description: "Like discover_api, but when the project root is missing it responds with a prompt asking for it; call it again with the root to run the discovery.",
	}, tools.Chain(srv.Storage(), t.client, "discover_api_interactive", true, t.InteractiveHandler))

	t.logger.Debug().Msg("discovery tools registered")

	return nil
}

func (t *Tool) DiscoverHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	return t.run(ctx, input.Sources, input.Root, input.Output, input.Upload, input.Verbose)
}

// InteractiveHandler is two-phase: without a root it returns a prompt
// echoing the already-known parameters for verbatim replay. No state is held
// between the phases.
func (t *Tool) InteractiveHandler(ctx context.Context, _ *mcp.CallToolRequest, input PromptedInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	if input.Root == "" {
		prompt := fmt.Sprintf(
			"The project root directory is required to resolve the source paths.\n"+
				"Ask the user for it, then call discover_api_interactive again with:\n"+
				"  sources: %s\n"+
				"  root: <absolute path to the project root>\n"+
				"  output: %q",
			strings.Join(input.Sources, ", "), input.Output,
		)
		return tools.TextResult(prompt), nil, nil
	}
	return t.run(ctx, input.Sources, input.Root, input.Output, input.Upload, input.Verbose)
}

func (t *Tool) run(ctx context.Context, sources []string, root, output string, upload, verbose bool) (*mcp.CallToolResult, any, error) {
	t.logger.Info().Msgf("discovering API endpoints in %d source files under %s", len(sources), root)
	out, err := t.client.DiscoverAPI(ctx, platform.DiscoverOptions{
		Sources: sources,
		Root:    root,
		Output:  output,
		Upload:  upload,
		Verbose: verbose,
	}, platform.FormatJSON)
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

// New creates the API discovery tools.
func New(logger zerolog.Logger, client *platform.Client) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "discover").Logger(),
		validator: validator.New(),
		client:    client,
	}
}
