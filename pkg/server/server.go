package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/specterhq/specter-mcp/pkg/storage"
)

// Server couples the MCP server with the execution history store that the
// tool wrapper and the history tool share.
type Server struct {
	mcp.Server
	storage storage.Storage
}

func NewServer(impl *mcp.Implementation, store storage.Storage) *Server {
	return &Server{
		Server:  *mcp.NewServer(impl, nil),
		storage: store,
	}
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
