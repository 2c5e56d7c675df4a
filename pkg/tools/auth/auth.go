package auth

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/specterhq/specter-mcp/pkg/credentials"
	"github.com/specterhq/specter-mcp/pkg/platform"
	"github.com/specterhq/specter-mcp/pkg/server"
	"github.com/specterhq/specter-mcp/pkg/tools"
)

const toolName = "authenticate"

// Input defines the MCP tool input parameters.
type Input struct {
	// Token lets the caller supply an existing API token directly instead
	// of going through the CLI login flow.
	Token  string `json:"token,omitempty" jsonschema:"Existing platform API token to use directly"`
	Expiry string `json:"expiry,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"Expiry date (YYYY-MM-DD) for a newly created token"`
}

// Tool implements the authenticate tool. It is the only mutator of the
// process-wide credential.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
	store     *credentials.Store
}

func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Authenticate against the Specter platform: verify a supplied token or run the CLI login flow to create one. The credential is persisted for future sessions.",
	}

	mcp.AddTool(&srv.Server, tool, tools.Chain(srv.Storage(), t.client, toolName, false, t.AuthenticateHandler))
	t.logger.Debug().Msg("authenticate tool registered")

	return nil
}

func (t *Tool) AuthenticateHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	token := input.Token
	if token == "" {
		created, err := t.client.CreateCredential(ctx, input.Expiry)
		if err != nil {
			return nil, nil, err
		}
		token = created
	}

	t.client.SetToken(token)
	if !t.client.VerifyCredential(ctx) {
		t.client.SetToken("")
		return nil, nil, fmt.Errorf("credential verification failed; the token was not accepted by the platform")
	}

	t.store.Save(token)
	t.logger.Info().Msg("credential verified and saved")

	return tools.TextResult("Authenticated with the Specter platform. The credential has been verified and saved."), nil, nil
}

// New creates the authenticate tool.
func New(logger zerolog.Logger, client *platform.Client, store *credentials.Store) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
		client:    client,
		store:     store,
	}
}
