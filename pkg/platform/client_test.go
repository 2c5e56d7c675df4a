package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records the invocation and replays canned output.
type fakeRunner struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
	calls  int
}

func (f *fakeRunner) run(_ context.Context, name string, args []string) ([]byte, []byte, error) {
	f.calls++
	f.name = name
	f.args = args
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newTestClient(runner *fakeRunner) *Client {
	c := NewClient(zerolog.Nop(), "specter")
	if runner != nil {
		c.runCmd = runner.run
	}
	return c
}

func TestQuoteArg(t *testing.T) {
	assert.Equal(t, "plain", QuoteArg("plain"))
	assert.Equal(t, `"has space"`, QuoteArg("has space"))
	assert.Equal(t, `"tab	here"`, QuoteArg("tab\there"))
	assert.Equal(t, "http://x", QuoteArg("http://x"))
}

func TestCommandLine_QuotesSpacedArgs(t *testing.T) {
	line := CommandLine("specter", []string{"target", "create", "my target", "http://x"})
	assert.Equal(t, `specter target create "my target" http://x`, line)
}

func TestExecuteCommand_AppendsFixedFlags(t *testing.T) {
	runner := &fakeRunner{stdout: "ok"}
	c := newTestClient(runner)
	c.SetToken("secret-token")

	out, err := c.ExecuteCommand(context.Background(), []string{"target", "list"}, FormatJSON, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.Equal(t, "specter", runner.name)
	assert.Equal(t, []string{
		"target", "list",
		"--output", "json",
		"--api-url", DefaultBaseURL,
		"--api-token", "secret-token",
	}, runner.args)
}

func TestExecuteCommand_SkipCredential(t *testing.T) {
	runner := &fakeRunner{stdout: "ok"}
	c := newTestClient(runner)
	c.SetToken("secret-token")

	_, err := c.ExecuteCommand(context.Background(), []string{"token", "create"}, FormatText, true)
	require.NoError(t, err)
	assert.NotContains(t, runner.args, "--api-token")
}

func TestExecuteCommand_NoCredentialHeld(t *testing.T) {
	runner := &fakeRunner{stdout: "ok"}
	c := newTestClient(runner)

	_, err := c.ExecuteCommand(context.Background(), []string{"target", "list"}, FormatJSON, false)
	require.NoError(t, err)
	assert.NotContains(t, runner.args, "--api-token")
}

func TestExecuteCommand_FailureWrapsStderr(t *testing.T) {
	runner := &fakeRunner{stderr: "no such target", err: errors.New("exit status 1")}
	c := newTestClient(runner)

	_, err := c.ExecuteCommand(context.Background(), []string{"target", "get", "x"}, FormatJSON, false)
	require.Error(t, err)

	var toolErr *ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Error(), "no such target")
	assert.Contains(t, toolErr.Error(), "target get x")
}

func TestExecuteCommand_DiscoverStderrConcatenated(t *testing.T) {
	runner := &fakeRunner{stdout: "spec written\n", stderr: "12 paths discovered"}
	c := newTestClient(runner)

	out, err := c.ExecuteCommand(context.Background(), []string{"discover", "app.py"}, FormatJSON, false)
	require.NoError(t, err)
	assert.Equal(t, "spec written\n12 paths discovered", out)
}

func TestExecuteCommand_NonDiscoverStderrNotReturned(t *testing.T) {
	runner := &fakeRunner{stdout: "listing", stderr: "progress chatter"}
	c := newTestClient(runner)

	out, err := c.ExecuteCommand(context.Background(), []string{"target", "list"}, FormatJSON, false)
	require.NoError(t, err)
	assert.Equal(t, "listing", out)
}

func TestCappedBuffer_RejectsOverflow(t *testing.T) {
	buf := &cappedBuffer{max: 8}

	_, err := buf.Write([]byte("12345678"))
	require.NoError(t, err)

	_, err = buf.Write([]byte("9"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output buffer exceeded")
}

func TestIsInstalled(t *testing.T) {
	c := newTestClient(&fakeRunner{stdout: "specter 2.1.0"})
	assert.True(t, c.IsInstalled())

	c = newTestClient(&fakeRunner{err: errors.New("executable file not found")})
	assert.False(t, c.IsInstalled())
}

func TestCreateCredential_ParsesFinalLine(t *testing.T) {
	runner := &fakeRunner{stdout: "Creating token...\nspt_0123456789abcdef0123456789abcdef\n"}
	c := newTestClient(runner)
	c.loginCmd = func(ctx context.Context) error { return nil }

	token, err := c.CreateCredential(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "spt_0123456789abcdef0123456789abcdef", token)

	// Token creation must not send a credential flag.
	assert.NotContains(t, runner.args, "--api-token")
	assert.Equal(t, []string{"token", "create", "--output", "text", "--api-url", DefaultBaseURL}, runner.args)
}

func TestCreateCredential_ExpiryFlag(t *testing.T) {
	runner := &fakeRunner{stdout: "spt_0123456789abcdef0123456789abcdef\n"}
	c := newTestClient(runner)
	c.loginCmd = func(ctx context.Context) error { return nil }

	_, err := c.CreateCredential(context.Background(), "2027-01-01")
	require.NoError(t, err)
	assert.Contains(t, runner.args, "--expiry")
	assert.Contains(t, runner.args, "2027-01-01")
}

func TestCreateCredential_LoginFailureIsNonFatal(t *testing.T) {
	runner := &fakeRunner{stdout: "spt_0123456789abcdef0123456789abcdef\n"}
	c := newTestClient(runner)
	c.loginCmd = func(ctx context.Context) error { return errors.New("browser not available") }

	token, err := c.CreateCredential(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestCreateCredential_NoTokenOutput(t *testing.T) {
	runner := &fakeRunner{stdout: "\n\n"}
	c := newTestClient(runner)
	c.loginCmd = func(ctx context.Context) error { return nil }

	_, err := c.CreateCredential(context.Background(), "")
	require.Error(t, err)

	var credErr *CredentialCreationError
	assert.ErrorAs(t, err, &credErr)
}

func TestLastNonEmptyLine(t *testing.T) {
	assert.Equal(t, "c", lastNonEmptyLine("a\nb\nc\n\n"))
	assert.Equal(t, "only", lastNonEmptyLine("only"))
	assert.Equal(t, "", lastNonEmptyLine("\n  \n"))
}

func TestVerifyCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/", r.URL.Path)
		assert.Equal(t, "Token good-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user": {"id": "u-42", "email": "a@b.c"}}`))
	}))
	defer srv.Close()

	c := newTestClient(nil)
	c.baseURL = srv.URL
	c.SetToken("good-token")

	assert.True(t, c.VerifyCredential(context.Background()))
}

func TestVerifyCredential_NoToken(t *testing.T) {
	c := newTestClient(nil)
	assert.False(t, c.VerifyCredential(context.Background()))
}

func TestVerifyCredential_MissingUserObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detail": "ok but no user"}`))
	}))
	defer srv.Close()

	c := newTestClient(nil)
	c.baseURL = srv.URL
	c.SetToken("tok")

	assert.False(t, c.VerifyCredential(context.Background()))
}

func TestVerifyCredential_RequestFailureIsFalseNotError(t *testing.T) {
	c := newTestClient(nil)
	c.baseURL = "http://127.0.0.1:1" // nothing listens here
	c.SetToken("tok")

	assert.False(t, c.VerifyCredential(context.Background()))
}

func TestAPIRequest_NonOKBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "token lacks scan scope"}`))
	}))
	defer srv.Close()

	c := newTestClient(nil)
	c.baseURL = srv.URL

	_, err := c.APIRequest(context.Background(), "/scans/", http.MethodGet, nil, nil, false)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "token lacks scan scope", apiErr.Detail)
}

func TestAPIRequest_NonJSONErrorBodyFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := newTestClient(nil)
	c.baseURL = srv.URL

	_, err := c.APIRequest(context.Background(), "/scans/", http.MethodGet, nil, nil, false)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Detail, "502")
}

func TestAPIRequest_NoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(nil)
	c.baseURL = srv.URL

	_, err := c.APIRequest(context.Background(), "/projects/", http.MethodGet, nil, nil, false)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}
