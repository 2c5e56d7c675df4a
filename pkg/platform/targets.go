package platform

import (
	"context"
	"strings"
)

// CreateTargetOptions carries the optional parameters of target creation.
type CreateTargetOptions struct {
	Project string
}

// ListTargets runs the CLI target listing.
func (c *Client) ListTargets(ctx context.Context, format Format) (string, error) {
	return c.ExecuteCommand(ctx, []string{"target", "list"}, format, false)
}

// GetTarget fetches a single target by ID through the CLI.
func (c *Client) GetTarget(ctx context.Context, targetID string, format Format) (string, error) {
	if strings.TrimSpace(targetID) == "" {
		return "", &ValidationError{Msg: "target ID is required"}
	}
	return c.ExecuteCommand(ctx, []string{"target", "get", targetID}, format, false)
}

// CreateTarget registers a new scannable asset on the platform.
func (c *Client) CreateTarget(ctx context.Context, name, targetURL string, opts CreateTargetOptions, format Format) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &ValidationError{Msg: "target name is required"}
	}
	if strings.TrimSpace(targetURL) == "" {
		return "", &ValidationError{Msg: "target URL is required"}
	}
	args := []string{"target", "create", name, targetURL}
	if opts.Project != "" {
		args = append(args, "-p", opts.Project)
	}
	return c.ExecuteCommand(ctx, args, format, false)
}

// DeleteTarget removes a target by ID through the CLI.
func (c *Client) DeleteTarget(ctx context.Context, targetID string, format Format) (string, error) {
	if strings.TrimSpace(targetID) == "" {
		return "", &ValidationError{Msg: "target ID is required"}
	}
	return c.ExecuteCommand(ctx, []string{"target", "delete", targetID}, format, false)
}

// RunCommand passes an arbitrary subcommand straight through to the CLI.
func (c *Client) RunCommand(ctx context.Context, args []string, format Format) (string, error) {
	if len(args) == 0 {
		return "", &ValidationError{Msg: "at least one command argument is required"}
	}
	return c.ExecuteCommand(ctx, args, format, false)
}
