package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var trafficFields = []string{"id", "target", "recorded_at", "entries"}

// RecordTraffic drives the CLI's browser traffic capture, writing a HAR file
// to the given path.
func (c *Client) RecordTraffic(ctx context.Context, targetURL, outputPath string, format Format) (string, error) {
	if strings.TrimSpace(targetURL) == "" {
		return "", &ValidationError{Msg: "target URL is required"}
	}
	args := []string{"traffic", "record", targetURL}
	if outputPath != "" {
		args = append(args, "-o", outputPath)
	}
	return c.ExecuteCommand(ctx, args, format, false)
}

// ListTrafficOptions filters the traffic recording listing.
type ListTrafficOptions struct {
	Target string
	Page   int
}

// ListTraffic fetches the traffic recording listing from the API.
func (c *Client) ListTraffic(ctx context.Context, opts ListTrafficOptions, format Format) (string, error) {
	query := url.Values{}
	if opts.Target != "" {
		query.Set("target", opts.Target)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	resp, err := c.APIRequest(ctx, "/traffic-recordings/", http.MethodGet, query, nil, false)
	if err != nil {
		return "", err
	}
	return FormatListing(resp, trafficFields, format)
}

// DownloadTraffic fetches a recording's HAR file and writes it into dir.
// Returns the path of the written file.
func (c *Client) DownloadTraffic(ctx context.Context, recordingID, dir string) (string, error) {
	if strings.TrimSpace(recordingID) == "" {
		return "", &ValidationError{Msg: "recording ID is required"}
	}
	if strings.TrimSpace(dir) == "" {
		return "", &ValidationError{Msg: "destination directory is required"}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", &ValidationError{Msg: fmt.Sprintf("destination %s is not an existing directory", dir)}
	}

	data, err := c.APIDownload(ctx, fmt.Sprintf("/traffic-recordings/%s/download/", recordingID))
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(dir, recordingID+".har")
	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write HAR file: %w", err)
	}
	return outPath, nil
}
