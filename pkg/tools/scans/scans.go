package scans

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

// StartInput defines the start_scan parameters.
type StartInput struct {
	TargetID string `json:"target_id" validate:"required" jsonschema:"Target ID to scan"`
	Profile  string `json:"profile,omitempty" jsonschema:"Scan profile name"`
}

// ListInput defines the list_scans parameters.
type ListInput struct {
	Target   string   `json:"target,omitempty" jsonschema:"Filter scans by target ID"`
	Status   []string `json:"status,omitempty" jsonschema:"Filter scans by status; repeatable"`
	Page     int      `json:"page,omitempty" validate:"min=0" jsonschema:"Page number"`
	PageSize int      `json:"page_size,omitempty" validate:"min=0,max=1000" jsonschema:"Results per page"`
	Format   string   `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// StatusInput defines the get_scan_status parameters.
type StatusInput struct {
	ScanID string `json:"scan_id" validate:"required" jsonschema:"Scan ID to fetch"`
}

// ChecksInput defines the get_scan_checks parameters.
type ChecksInput struct {
	ScanID   string   `json:"scan_id" validate:"required" jsonschema:"Scan ID whose findings to fetch"`
	Severity []string `json:"severity,omitempty" validate:"dive,oneof=info low medium high critical" jsonschema:"Filter by severity; repeatable"`
	Status   []int    `json:"status,omitempty" jsonschema:"Filter by numeric check status; repeatable"`
	Page     int      `json:"page,omitempty" validate:"min=0" jsonschema:"Page number"`
	PageSize int      `json:"page_size,omitempty" validate:"min=0,max=1000" jsonschema:"Results per page (default 100)"`
	Format   string   `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// PathsInput defines the get_scan_paths parameters.
type PathsInput struct {
	ScanID string `json:"scan_id" validate:"required" jsonschema:"Scan ID whose crawled paths to fetch"`
	Page   int    `json:"page,omitempty" validate:"min=0" jsonschema:"Page number"`
	Format string `json:"format,omitempty" validate:"omitempty,oneof=json text table" jsonschema:"Output format: json, text or table (default json)"`
}

// launchFunc dispatches the actual scan launch. Injected in tests to
// exercise the fire-and-forget contract with a slow or failing launcher.
type launchFunc func(ctx context.Context, targetID string, opts platform.StartScanOptions) (string, error)

// Tool implements the scan tools.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	client    *platform.Client
	launch    launchFunc
}

func (t *Tool) Register(srv *server.Server) error {
	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "start_scan",
		Description: "Launch a vulnerability scan against a target. The launch is dispatched in the background; use list_scans or get_scan_status to track progress.",
	}, tools.Chain(srv.Storage(), t.client, "start_scan", true, t.StartHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "list_scans",
		Description: "List scans on the Specter platform, optionally filtered by target or status.",
	}, tools.Chain(srv.Storage(), t.client, "list_scans", true, t.ListHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "get_scan_status",
		Description: "Fetch the current state of a scan by ID.",
	}, tools.Chain(srv.Storage(), t.client, "get_scan_status", true, t.StatusHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "get_scan_checks",
		Description: "Fetch the vulnerability findings of a scan, filterable by severity and status.",
	}, tools.Chain(srv.Storage(), t.client, "get_scan_checks", true, t.ChecksHandler))

	mcp.AddTool(&srv.Server, &mcp.Tool{
		Name:        "get_scan_paths",
		Description: "Fetch the paths a scan has crawled.",
	}, tools.Chain(srv.Storage(), t.client, "get_scan_paths", true, t.PathsHandler))

	t.logger.Debug().Msg("scan tools registered")

	return nil
}

// StartHandler deliberately does not wait for the launch call. Starting a
// scan is a long-running remote operation; the confirmation goes back in the
// same turn and the eventual launch result is only logged. Callers reconcile
// via list_scans / get_scan_status.
func (t *Tool) StartHandler(ctx context.Context, _ *mcp.CallToolRequest, input StartInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	targetID := input.TargetID
	opts := platform.StartScanOptions{Profile: input.Profile}

	// Background context intentionally - the launch must outlive this
	// request turn.
	go func() { //nolint:contextcheck
		out, err := t.launch(context.Background(), targetID, opts)
		if err != nil {
			t.logger.Error().Err(err).Msgf("background scan launch for target %s failed", targetID)
			return
		}
		t.logger.Info().Msgf("background scan launch for target %s completed: %s", targetID, firstLine(out))
	}()

	msg := fmt.Sprintf(
		"Scan launch for target %s has been dispatched in the background. The platform may take a moment to register it; use list_scans or get_scan_status to track progress.",
		targetID,
	)
	return tools.TextResult(msg), nil, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

func (t *Tool) ListHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.ListScans(ctx, platform.ListScansOptions{
		Target:   input.Target,
		Status:   input.Status,
		Page:     input.Page,
		PageSize: input.PageSize,
	}, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) StatusHandler(ctx context.Context, _ *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.GetScanStatus(ctx, input.ScanID)
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) ChecksHandler(ctx context.Context, _ *mcp.CallToolRequest, input ChecksInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.GetScanChecks(ctx, input.ScanID, platform.GetScanChecksOptions{
		Severity: input.Severity,
		Status:   input.Status,
		Page:     input.Page,
		PageSize: input.PageSize,
	}, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

func (t *Tool) PathsHandler(ctx context.Context, _ *mcp.CallToolRequest, input PathsInput) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}
	out, err := t.client.GetScanPaths(ctx, input.ScanID, platform.GetScanPathsOptions{
		Page: input.Page,
	}, platform.ParseFormat(input.Format))
	if err != nil {
		return nil, nil, err
	}
	return tools.TextResult(out), nil, nil
}

// New creates the scan tools.
func New(logger zerolog.Logger, client *platform.Client) tools.Tool {
	t := &Tool{
		logger:    logger.With().Str("tool", "scans").Logger(),
		validator: validator.New(),
		client:    client,
	}
	t.launch = func(ctx context.Context, targetID string, opts platform.StartScanOptions) (string, error) {
		return t.client.StartScan(ctx, targetID, opts, platform.FormatJSON)
	}
	return t
}
