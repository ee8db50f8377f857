package repo

import (
	"fmt"

	"tourmarket-backend/internal/config"
	"tourmarket-backend/internal/domain"
	"tourmarket-backend/internal/infrastructure/backup"

	"go.uber.org/zap"
)

// OrderRepository is the persistence contract shared by every driver.
type OrderRepository interface {
	ReadAll(actor domain.Actor) ([]domain.Order, error)
	FindByID(id string, actor domain.Actor) (*domain.Order, error)
	Insert(o domain.Order) (domain.Order, error)
	UpdateByID(id string, patch domain.OrderPatch, actor domain.Actor) (*domain.Order, error)
}

// Open selects the repository driver from config. The file driver is
// the safe default; an unknown driver fails fast at startup.
func Open(cfg config.Config, log *zap.Logger) (OrderRepository, error) {
	switch cfg.OrdersRepository {
	case "file":
		backups := backup.New(cfg.DataFile, cfg.BackupRoot, cfg.BackupKeep, cfg.BackupDebug, log)
		return NewFileStore(cfg.DataFile, cfg.CommissionPercent, backups, log), nil
	case "memory":
		return NewMemoryStore(cfg.CommissionPercent), nil
	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("invalid orders repository driver %q: expected file, memory or postgres", cfg.OrdersRepository)
	}
}
