package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultBinary is the platform CLI looked up on PATH.
	DefaultBinary = "specter"
	// DefaultBaseURL is the platform REST API every request targets.
	DefaultBaseURL = "https://api.specterhq.io/api/v1"

	// Discovery output on large codebases runs to tens of megabytes.
	maxOutputBytes = 50 * 1024 * 1024

	// Tokens issued by the platform are much longer than this; anything
	// shorter is almost certainly a truncated parse.
	minPlausibleTokenLen = 20

	discoverCommand = "discover"
)

// Format selects one of the three output encodings the CLI and the
// formatting helpers understand.
type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatTable Format = "table"
)

// commandRunner executes the platform binary and returns the two output
// streams separately. Injected in tests.
type commandRunner func(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)

// Client is the single gateway to the external platform. Every domain
// operation is a method on it that assembles either a CLI invocation or an
// HTTP request; callers never touch the binary or the API directly.
type Client struct {
	logger     zerolog.Logger
	binary     string
	baseURL    string
	token      string
	httpClient *http.Client
	runCmd     commandRunner
	loginCmd   func(ctx context.Context) error
}

func NewClient(logger zerolog.Logger, binary string) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	c := &Client{
		logger:     logger.With().Str("component", "platform").Logger(),
		binary:     binary,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	c.runCmd = c.runSubprocess
	c.loginCmd = c.runInteractiveLogin
	return c
}

// Token returns the credential currently held in-process.
func (c *Client) Token() string {
	return c.token
}

// SetToken replaces the in-process credential. Only the authenticate tool
// calls this after startup.
func (c *Client) SetToken(token string) {
	c.token = token
}

// HasCredential reports whether a credential is held.
func (c *Client) HasCredential() bool {
	return c.token != ""
}

// QuoteArg wraps an argument in double quotes when it contains whitespace,
// so rendered command lines stay copy-pasteable.
func QuoteArg(arg string) string {
	if strings.ContainsAny(arg, " \t") {
		return `"` + arg + `"`
	}
	return arg
}

// CommandLine renders a binary plus arguments as a single shell-style line.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteArg(name))
	for _, a := range args {
		parts = append(parts, QuoteArg(a))
	}
	return strings.Join(parts, " ")
}

// buildArgs appends the fixed format and endpoint flags, and the credential
// flag unless skipped or absent.
func (c *Client) buildArgs(args []string, format Format, skipCredential bool) []string {
	full := make([]string, 0, len(args)+6)
	full = append(full, args...)
	full = append(full, "--output", string(format), "--api-url", c.baseURL)
	if !skipCredential && c.token != "" {
		full = append(full, "--api-token", c.token)
	}
	return full
}

// ExecuteCommand shells out to the platform binary and returns its standard
// output. For the discovery subcommand the binary reports progress on stderr,
// so that stream is concatenated after stdout; for every other subcommand
// stderr is only logged.
func (c *Client) ExecuteCommand(ctx context.Context, args []string, format Format, skipCredential bool) (string, error) {
	full := c.buildArgs(args, format, skipCredential)
	c.logger.Debug().Msgf("executing %s", CommandLine(c.binary, full))

	stdout, stderr, err := c.runCmd(ctx, c.binary, full)
	if err != nil {
		detail := err.Error()
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			detail = fmt.Sprintf("%s: %s", err, msg)
		}
		return "", &ExternalToolError{Command: strings.Join(args, " "), Detail: detail}
	}

	out := string(stdout)
	if trimmed := strings.TrimSpace(string(stderr)); trimmed != "" {
		if len(args) > 0 && args[0] == discoverCommand {
			out = strings.TrimRight(out, "\n") + "\n" + trimmed
		} else {
			c.logger.Debug().Msgf("specter stderr: %s", trimmed)
		}
	}
	return out, nil
}

// cappedBuffer fails the write once the subprocess has produced more output
// than we are willing to hold.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.max {
		return 0, fmt.Errorf("output buffer exceeded (%d byte limit)", b.max)
	}
	return b.buf.Write(p)
}

func (c *Client) runSubprocess(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	stdout := &cappedBuffer{max: maxOutputBytes}
	stderr := &cappedBuffer{max: maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	return stdout.buf.Bytes(), stderr.buf.Bytes(), err
}

// Upload describes a multipart file upload.
type Upload struct {
	FieldName string
	FileName  string
	Content   []byte
	Fields    map[string]string
}

// APIRequest issues an HTTP call against the platform API and returns the
// decoded JSON response. Array-valued query parameters are sent as repeated
// keys. Non-2xx responses become an APIError carrying the server's detail
// message when one is present.
func (c *Client) APIRequest(ctx context.Context, endpoint, method string, query url.Values, body any, isMultipart bool) (any, error) {
	reqURL := strings.TrimRight(c.baseURL, "/") + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	contentType := ""
	switch {
	case isMultipart:
		upload, ok := body.(*Upload)
		if !ok {
			return nil, fmt.Errorf("multipart request requires an *Upload body")
		}
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		for k, v := range upload.Fields {
			if err := writer.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("failed to build multipart body: %w", err)
			}
		}
		part, err := writer.CreateFormFile(upload.FieldName, upload.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := part.Write(upload.Content); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
		reqBody = buf
		contentType = writer.FormDataContentType()
	case body != nil:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{StatusCode: 0, Detail: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: apiDetail(data, resp.Status)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("invalid JSON response: %v", err)}
	}
	return parsed, nil
}

// apiDetail pulls the server's "detail" field out of an error body, falling
// back to the transport status line.
func apiDetail(body []byte, status string) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return status
}

// APIDownload fetches a raw (non-JSON) resource such as a HAR file.
func (c *Client) APIDownload(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{StatusCode: 0, Detail: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: apiDetail(data, resp.Status)}
	}
	return data, nil
}

// IsInstalled probes the platform binary with a trivial subcommand.
func (c *Client) IsInstalled() bool {
	_, _, err := c.runCmd(context.Background(), c.binary, []string{"version"})
	return err == nil
}

func (c *Client) runInteractiveLogin(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.binary, "login") //nolint:gosec
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// CreateCredential drives the interactive login flow and then mints an API
// token. The login step is best effort: the user may already hold a session.
func (c *Client) CreateCredential(ctx context.Context, expiryDate string) (string, error) {
	if err := c.loginCmd(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("specter login failed, continuing with token creation")
	}

	args := []string{"token", "create"}
	if expiryDate != "" {
		args = append(args, "--expiry", expiryDate)
	}
	out, err := c.ExecuteCommand(ctx, args, FormatText, true)
	if err != nil {
		return "", &CredentialCreationError{Msg: fmt.Sprintf("token creation failed: %v", err)}
	}

	token := lastNonEmptyLine(out)
	if token == "" {
		return "", &CredentialCreationError{Msg: "token creation produced no token output"}
	}
	if len(token) < minPlausibleTokenLen {
		c.logger.Warn().Msgf("created token is suspiciously short (%d chars)", len(token))
	}
	return token, nil
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// VerifyCredential checks the held token against the current-user endpoint.
// Any failure means "not verified", never an error.
func (c *Client) VerifyCredential(ctx context.Context) bool {
	if c.token == "" {
		return false
	}
	resp, err := c.APIRequest(ctx, "/users/me/", http.MethodGet, nil, nil, false)
	if err != nil {
		c.logger.Debug().Err(err).Msg("credential verification request failed")
		return false
	}
	obj, ok := resp.(map[string]any)
	if !ok {
		return false
	}
	user, ok := obj["user"].(map[string]any)
	if !ok {
		return false
	}
	switch id := user["id"].(type) {
	case string:
		return id != ""
	case float64:
		return true
	default:
		return false
	}
}
