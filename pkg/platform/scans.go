package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultChecksPageSize = 100

var (
	scanFields  = []string{"id", "target", "status", "created_at", "progress"}
	checkFields = []string{"id", "name", "severity", "status", "url"}
	pathFields  = []string{"id", "path", "method"}
)

// StartScanOptions carries the optional parameters of a scan launch.
type StartScanOptions struct {
	Profile string
}

// StartScan launches a vulnerability scan through the CLI. When the CLI
// reports the new scan as JSON, the id field is echoed under extracted_id so
// callers scanning for either key find it.
func (c *Client) StartScan(ctx context.Context, targetID string, opts StartScanOptions, format Format) (string, error) {
	if strings.TrimSpace(targetID) == "" {
		return "", &ValidationError{Msg: "target ID is required"}
	}
	args := []string{"scan", "start", targetID}
	if opts.Profile != "" {
		args = append(args, "--profile", opts.Profile)
	}
	out, err := c.ExecuteCommand(ctx, args, format, false)
	if err != nil {
		return "", err
	}
	return echoScanID(out), nil
}

func echoScanID(out string) string {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return out
	}
	id, ok := parsed["id"]
	if !ok {
		return out
	}
	parsed["extracted_id"] = id
	data, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return out
	}
	return string(data)
}

// ListScansOptions carries the scan listing filters. Absent options are
// omitted from the request entirely so the server applies its defaults.
type ListScansOptions struct {
	Target   string
	Status   []string
	Page     int
	PageSize int
}

// ListScans fetches the scan listing from the API.
func (c *Client) ListScans(ctx context.Context, opts ListScansOptions, format Format) (string, error) {
	query := url.Values{}
	if opts.Target != "" {
		query.Set("target", opts.Target)
	}
	for _, s := range opts.Status {
		query.Add("status", s)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	resp, err := c.APIRequest(ctx, "/scans/", http.MethodGet, query, nil, false)
	if err != nil {
		return "", err
	}
	return FormatListing(resp, scanFields, format)
}

// GetScanStatus fetches one scan by ID from the API.
func (c *Client) GetScanStatus(ctx context.Context, scanID string) (string, error) {
	if strings.TrimSpace(scanID) == "" {
		return "", &ValidationError{Msg: "scan ID is required"}
	}
	resp, err := c.APIRequest(ctx, fmt.Sprintf("/scans/%s/", scanID), http.MethodGet, nil, nil, false)
	if err != nil {
		return "", err
	}
	return FormatObject(resp)
}

// GetScanChecksOptions filters the vulnerability findings of a scan.
// Severity and status are array-valued and sent as repeated query keys.
type GetScanChecksOptions struct {
	Severity []string
	Status   []int
	Page     int
	PageSize int
}

// GetScanChecks fetches the findings of a scan. page_size defaults to 100
// when the caller omits it.
func (c *Client) GetScanChecks(ctx context.Context, scanID string, opts GetScanChecksOptions, format Format) (string, error) {
	if strings.TrimSpace(scanID) == "" {
		return "", &ValidationError{Msg: "scan ID is required"}
	}
	query := url.Values{}
	for _, s := range opts.Severity {
		query.Add("severity", s)
	}
	for _, s := range opts.Status {
		query.Add("status", strconv.Itoa(s))
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultChecksPageSize
	}
	query.Set("page_size", strconv.Itoa(pageSize))

	resp, err := c.APIRequest(ctx, fmt.Sprintf("/scans/%s/checks/", scanID), http.MethodGet, query, nil, false)
	if err != nil {
		return "", err
	}
	return FormatListing(resp, checkFields, format)
}

// GetScanPathsOptions pages through the crawled paths of a scan. No
// page_size is sent; the server default applies.
type GetScanPathsOptions struct {
	Page int
}

// GetScanPaths fetches the paths discovered by a scan.
func (c *Client) GetScanPaths(ctx context.Context, scanID string, opts GetScanPathsOptions, format Format) (string, error) {
	if strings.TrimSpace(scanID) == "" {
		return "", &ValidationError{Msg: "scan ID is required"}
	}
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	resp, err := c.APIRequest(ctx, fmt.Sprintf("/scans/%s/paths/", scanID), http.MethodGet, query, nil, false)
	if err != nil {
		return "", err
	}
	return FormatListing(resp, pathFields, format)
}
