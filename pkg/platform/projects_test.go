package platform

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectByName_Found(t *testing.T) {
	c, _ := apiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/", r.URL.Path)
		assert.Equal(t, "web-apps", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`{"count": 1, "results": [{"id": "p-1", "name": "web-apps"}]}`))
	})

	out, err := c.GetProjectByName(context.Background(), "web-apps")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "p-1"`)
}

func TestGetProjectByName_EmptyResultSet(t *testing.T) {
	c, _ := apiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 0, "results": []}`))
	})

	_, err := c.GetProjectByName(context.Background(), "ghost")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Contains(t, err.Error(), `"ghost" not found`)
}

func TestGetProjectByName_HTTP404MapsToNotFound(t *testing.T) {
	c, _ := apiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "not here"}`))
	})

	_, err := c.GetProjectByName(context.Background(), "ghost")
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Contains(t, err.Error(), `"ghost" not found`)
}

func TestGetProjectByName_OtherAPIErrorsPassThrough(t *testing.T) {
	c, _ := apiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "boom"}`))
	})

	_, err := c.GetProjectByName(context.Background(), "p")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestListProjects(t *testing.T) {
	c, _ := apiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/", r.URL.Path)
		_, _ = w.Write([]byte(`{"count": 2, "results": [{"id": "p-1", "name": "a"}, {"id": "p-2", "name": "b"}]}`))
	})

	out, err := c.ListProjects(context.Background(), ListProjectsOptions{}, FormatTable)
	require.NoError(t, err)
	assert.Contains(t, out, "p-1")
	assert.Contains(t, out, "p-2")
}
