package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/apperrors"
	"github.com/opsight-ai/opsight-engine/pkg/config"
	"github.com/opsight-ai/opsight-engine/pkg/database"
)

// New creates the store for the configured driver.
func New(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := database.NewConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgres(db, cfg, logger), nil
	case "mssql":
		return NewMSSQL(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownDriver, cfg.Driver)
	}
}
