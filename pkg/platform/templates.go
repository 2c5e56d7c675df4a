package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var templateFields = []string{"id", "name", "project", "created_at"}

// detailInParens matches the "(4xx: reason)" fragment the platform embeds in
// some rejection messages.
var detailInParens = regexp.MustCompile(`\((4\d\d:[^)]+)\)`)

// ListNucleiTemplatesOptions filters the template listing.
type ListNucleiTemplatesOptions struct {
	Project string
	Page    int
}

// ListNucleiTemplates fetches the custom template listing from the API.
func (c *Client) ListNucleiTemplates(ctx context.Context, opts ListNucleiTemplatesOptions, format Format) (string, error) {
	query := url.Values{}
	if opts.Project != "" {
		query.Set("project", opts.Project)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	resp, err := c.APIRequest(ctx, "/nuclei-templates/", http.MethodGet, query, nil, false)
	if err != nil {
		return "", err
	}
	return FormatListing(resp, templateFields, format)
}

// CreateNucleiTemplate registers a template by name and content.
func (c *Client) CreateNucleiTemplate(ctx context.Context, name, project, content string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &ValidationError{Msg: "template name is required"}
	}
	if strings.TrimSpace(project) == "" {
		return "", &ValidationError{Msg: "project identifier is required"}
	}
	body := map[string]any{
		"name":    name,
		"project": project,
	}
	if content != "" {
		body["content"] = content
	}
	resp, err := c.APIRequest(ctx, "/nuclei-templates/", http.MethodPost, nil, body, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			if m := detailInParens.FindStringSubmatch(apiErr.Error()); m != nil {
				return "", fmt.Errorf("template creation rejected: %s", m[1])
			}
			return "", fmt.Errorf("template creation rejected: %w", err)
		}
		return "", err
	}
	return FormatObject(resp)
}

// sniffTemplate performs a cheap structural check of template content: it
// must carry id: and info: markers and parse as a YAML mapping with those
// keys. This is not Nuclei schema validation; the platform does that.
func sniffTemplate(content []byte) error {
	text := string(content)
	if !strings.Contains(text, "id:") || !strings.Contains(text, "info:") {
		return &ValidationError{Msg: "file does not look like a nuclei template: missing id: or info: section"}
	}
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return &ValidationError{Msg: fmt.Sprintf("file is not valid YAML: %v", err)}
	}
	if _, ok := doc["id"]; !ok {
		return &ValidationError{Msg: "template YAML has no top-level id key"}
	}
	if _, ok := doc["info"]; !ok {
		return &ValidationError{Msg: "template YAML has no top-level info key"}
	}
	return nil
}

// UploadNucleiTemplate uploads a template YAML file as multipart form data.
// Known HTTP failures are rewrapped with operation-specific guidance.
func (c *Client) UploadNucleiTemplate(ctx context.Context, path, project string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &ValidationError{Msg: "template file path is required"}
	}
	if strings.TrimSpace(project) == "" {
		return "", &ValidationError{Msg: "project identifier is required"}
	}
	content, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return "", &ValidationError{Msg: fmt.Sprintf("cannot read template file %s: %v", path, err)}
	}
	if err := sniffTemplate(content); err != nil {
		return "", err
	}

	upload := &Upload{
		FieldName: "file",
		FileName:  filepath.Base(path),
		Content:   content,
		Fields:    map[string]string{"project": project},
	}
	resp, err := c.APIRequest(ctx, "/nuclei-templates/upload/", http.MethodPost, nil, upload, true)
	if err != nil {
		return "", wrapUploadErr(err)
	}
	return FormatObject(resp)
}

func wrapUploadErr(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("project not found; check the project identifier: %w", err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("not permitted; verify your token has template permissions for this project: %w", err)
	case http.StatusBadRequest:
		return fmt.Errorf("template rejected by the platform; check its id and info sections: %w", err)
	default:
		return err
	}
}

// AssignNucleiTemplate attaches a template to a target.
func (c *Client) AssignNucleiTemplate(ctx context.Context, targetID, templateID string) (string, error) {
	if strings.TrimSpace(targetID) == "" {
		return "", &ValidationError{Msg: "target ID is required"}
	}
	if strings.TrimSpace(templateID) == "" {
		return "", &ValidationError{Msg: "template ID is required"}
	}
	body := map[string]any{
		"template_ids": []string{templateID},
	}
	resp, err := c.APIRequest(ctx, fmt.Sprintf("/targets/%s/nuclei-templates/", targetID), http.MethodPost, nil, body, false)
	if err != nil {
		return "", err
	}
	return FormatObject(resp)
}
