package tools

import (
	"github.com/specterhq/specter-mcp/pkg/server"
)

// Tool is anything that can register itself with the MCP server.
type Tool interface {
	Register(srv *server.Server) error
}

// CredentialHolder is the slice of the platform client the credential
// preamble needs.
type CredentialHolder interface {
	HasCredential() bool
}
