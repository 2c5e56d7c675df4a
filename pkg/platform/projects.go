package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var projectFields = []string{"id", "name", "created_at"}

// ListProjectsOptions pages through the project listing.
type ListProjectsOptions struct {
	Page int
}

// ListProjects fetches the project listing from the API.
func (c *Client) ListProjects(ctx context.Context, opts ListProjectsOptions, format Format) (string, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	resp, err := c.APIRequest(ctx, "/projects/", http.MethodGet, query, nil, false)
	if err != nil {
		return "", err
	}
	return FormatListing(resp, projectFields, format)
}

// GetProjectByName looks a project up by its exact name. An empty result set
// and an HTTP 404 both map to the same not-found error.
func (c *Client) GetProjectByName(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &ValidationError{Msg: "project name is required"}
	}
	query := url.Values{}
	query.Set("name", name)
	resp, err := c.APIRequest(ctx, "/projects/", http.MethodGet, query, nil, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", &NotFoundError{Msg: fmt.Sprintf("project %q not found", name)}
		}
		return "", err
	}
	_, items := paginatedItems(resp)
	if len(items) == 0 {
		return "", &NotFoundError{Msg: fmt.Sprintf("project %q not found", name)}
	}
	return FormatObject(items[0])
}
