package traffic

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

// RecordInput defines the record_traffic parameters.
type RecordInput struct {
	URL    string `json:"url" validate:"required,url" jsonschema:"URL to open in the capture browser"`
	Output string `json:"output,omitempty" jsonschema:"Path of the HAR file to write"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// ListInput defines the list_traffic parameters.
type ListInput struct {
	Target string `json:"target,omitempty" jsonschema:"Filter recordings by target ID"`
	Page   int    `json:"page,omitempty" validate:"min=0" jsonschema:"Page number"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// DownloadInput defines the download_traffic parameters. When directory is
// omitted the tool answers with a prompt instead of an error; the caller is
// expected to replay the call with the directory filled in.
type DownloadInput struct {
	RecordingID string `json:"recording_id" validate:"required" jsonschema:"Traffic recording ID to download"`
	Directory   string `json:"directory,omitempty" jsonschema:"Absolute directory to write the HAR file into"`
}

// Tool implements the traffic capture tools.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
}

func (t *Tool) Register(srv *server.Server) error {
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "record_traffic",
		Description: "Record a browser session against a URL and save it as a HAR traffic recording.",
	}, tools.Chain(srv.Storage(), t.client, "record_traffic", true, t.RecordHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "list_traffic",
		Description: "List the HAR traffic recordings stored on the Specter platform.",
	}, tools.Chain(srv.Storage(), t.client, "list_traffic", true, t.ListHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "download_traffic",
		Description: "Download a HAR traffic recording. If no directory is given, the tool responds with a prompt asking for one; call it again with the directory to perform the download.",
	}, tools.Chain(srv.Storage(), t.client, "download_traffic", true, t.DownloadHandler))

	t.logger.Debug().Msg("traffic tools registered")

	return nil
}

func (t *Tool) RecordHandler(ctx context.Context, _ *mcp.CallToolRequest, input RecordInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.RecordTraffic(ctx, input.URL, input.Output, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) ListHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.ListTraffic(ctx, platform.ListTrafficOptions{
		Target: input.Target,
		Page:   input.Page,
	}, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

// DownloadHandler is two-phase: without a directory it returns a prompt
// echoing the parameters to replay; with one it performs the download. No
// state is held between the phases.
func (t *Tool) DownloadHandler(ctx context.Context, _ *mcp.CallToolRequest, input DownloadInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	if input.Directory == "" {
		prompt := fmt.Sprintf(
			"A destination directory is required to download recording %s.\n"+
				"Ask the user where to save the HAR file, then call download_traffic again with:\n"+
				"  recording_id: %s\n"+
				"  directory: <absolute path to an existing directory>",
			input.RecordingID, input.RecordingID,
		)
		return tools.TextResult(prompt), nil, nil
	}

	path, err := t.client.DownloadTraffic(ctx, input.RecordingID, input.Directory)
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(fmt.Sprintf("Traffic recording saved to %s", path)), nil, nil
}

// New creates the traffic tools.
func New(logger zerolog.Logger, client *platform.Client) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "traffic").Logger(),
		validator: validator.New(),
		client:    client,
	}
}
