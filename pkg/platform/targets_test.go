package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTarget_ArgumentSequence(t *testing.T) {
	runner := &fakeRunner{stdout: "{}"}
	c := newTestClient(runner)
	c.SetToken("tok")

	_, err := c.CreateTarget(context.Background(), "t1", "http://x", CreateTargetOptions{Project: "p1"}, FormatJSON)
	require.NoError(t, err)

	// The domain arguments come first, in order; the fixed flags trail.
	assert.Equal(t, []string{"target", "create", "t1", "http://x", "-p", "p1"}, runner.args[:6])
	assert.Equal(t, []string{"--output", "json", "--api-url", DefaultBaseURL, "--api-token", "tok"}, runner.args[6:])
}

func TestCreateTarget_ProjectOmitted(t *testing.T) {
	runner := &fakeRunner{stdout: "{}"}
	c := newTestClient(runner)

	_, err := c.CreateTarget(context.Background(), "t1", "http://x", CreateTargetOptions{}, FormatJSON)
	require.NoError(t, err)
	assert.NotContains(t, runner.args, "-p")
}

func TestCreateTarget_Validation(t *testing.T) {
	c := newTestClient(&fakeRunner{})

	_, err := c.CreateTarget(context.Background(), "", "http://x", CreateTargetOptions{}, FormatJSON)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	_, err = c.CreateTarget(context.Background(), "t1", "  ", CreateTargetOptions{}, FormatJSON)
	require.ErrorAs(t, err, &valErr)
}

func TestListTargets(t *testing.T) {
	runner := &fakeRunner{stdout: "[]"}
	c := newTestClient(runner)

	_, err := c.ListTargets(context.Background(), FormatTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"target", "list"}, runner.args[:2])
	assert.Contains(t, runner.args, "table")
}

func TestDeleteTarget(t *testing.T) {
	runner := &fakeRunner{stdout: "deleted"}
	c := newTestClient(runner)

	out, err := c.DeleteTarget(context.Background(), "tgt-9", FormatText)
	require.NoError(t, err)
	assert.Equal(t, "deleted", out)
	assert.Equal(t, []string{"target", "delete", "tgt-9"}, runner.args[:3])
}

func TestRunCommand_RequiresArgs(t *testing.T) {
	c := newTestClient(&fakeRunner{})

	_, err := c.RunCommand(context.Background(), nil, FormatJSON)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
