package repo

import (
	"database/sql"

	"tourmarket-backend/internal/domain"

	_ "github.com/lib/pq"
)

// PostgresStore is the placeholder remote repository. It keeps the same
// contract as the file store but every operation is still unimplemented;
// selecting it only makes sense for wiring checks. When implementing,
// replace the error returns with real queries.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ReadAll(domain.Actor) ([]domain.Order, error) {
	return nil, domain.ErrRepositoryNotImplemented
}

func (s *PostgresStore) FindByID(string, domain.Actor) (*domain.Order, error) {
	return nil, domain.ErrRepositoryNotImplemented
}

func (s *PostgresStore) Insert(domain.Order) (domain.Order, error) {
	return domain.Order{}, domain.ErrRepositoryNotImplemented
}

func (s *PostgresStore) UpdateByID(string, domain.OrderPatch, domain.Actor) (*domain.Order, error) {
	return nil, domain.ErrRepositoryNotImplemented
}
