package storage

import (
	"context"

	"github.com/specterhq/specter-mcp/pkg/models"
)

type Storage interface {
	// Tool execution history
	CreateToolExecution(ctx context.Context, exec *models.ToolExecution) error
	GetToolExecution(ctx context.Context, id uint) (*models.ToolExecution, error)
	GetToolExecutions(ctx context.Context, limit, offset int) ([]models.ToolExecution, int64, error)
	DeleteToolExecution(ctx context.Context, id uint) error
	DeleteAllToolExecutions(ctx context.Context) error

	// Lifecycle
	Close() error
}
