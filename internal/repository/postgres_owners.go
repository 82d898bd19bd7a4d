package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

type PostgresOwnersRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresOwnersRepo(db *sql.DB, logger *zap.Logger) *PostgresOwnersRepo {
	return &PostgresOwnersRepo{db: db, logger: logger}
}

func (r *PostgresOwnersRepo) GetOrCreateOwner(ctx context.Context, label string) (domain.ID, error) {
	id, err := r.findByLabel(ctx, label)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.NilID, err
	}

	id = domain.NewID()
	_, err = r.db.ExecContext(ctx, `INSERT INTO owners (id, label) VALUES ($1, $2)`, id, label)
	if err == nil {
		r.logger.Info("Owner created", zap.String("label", label), zap.String("owner_id", id.String()))
		return id, nil
	}
	if isUniqueViolation(err) {
		// lost the race to a concurrent first contact
		return r.findByLabel(ctx, label)
	}
	return domain.NilID, fmt.Errorf("insert owner %q: %w", label, err)
}

func (r *PostgresOwnersRepo) findByLabel(ctx context.Context, label string) (domain.ID, error) {
	var id domain.ID
	err := r.db.QueryRowContext(ctx, `SELECT id FROM owners WHERE label = $1`, label).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NilID, domain.ErrNotFound
	}
	if err != nil {
		return domain.NilID, fmt.Errorf("select owner %q: %w", label, err)
	}
	return id, nil
}
