package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"remindd/internal/domain"
)

const pgUniqueViolation = "23505"

type PostgresRemindersRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRemindersRepository(ctx context.Context, databaseURL string) (*PostgresRemindersRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}

	repo := &PostgresRemindersRepository{pool: pool}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRemindersRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRemindersRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reminders (
			name        TEXT PRIMARY KEY,
			owner_id    BIGINT NOT NULL,
			chat_id     BIGINT NOT NULL,
			receiver_id BIGINT NOT NULL,
			body        TEXT NOT NULL,
			fire_at     TIMESTAMPTZ NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure reminders schema: %w", err)
	}
	return nil
}

func (r *PostgresRemindersRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminders (name, owner_id, chat_id, receiver_id, body, fire_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		reminder.Name,
		reminder.OwnerID,
		reminder.ChatID,
		reminder.ReceiverID,
		reminder.Text,
		reminder.FireAt,
		reminder.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *PostgresRemindersRepository) Remove(ctx context.Context, name string) (bool, error) {
	command, err := r.pool.Exec(ctx, `DELETE FROM reminders WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	return command.RowsAffected() > 0, nil
}

func (r *PostgresRemindersRepository) Get(ctx context.Context, name string) (*domain.Reminder, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT name, owner_id, chat_id, receiver_id, body, fire_at, created_at
		FROM reminders
		WHERE name = $1
	`, name)

	reminder, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query reminder: %w", err)
	}
	return reminder, nil
}

func (r *PostgresRemindersRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, owner_id, chat_id, receiver_id, body, fire_at, created_at
		FROM reminders
		WHERE owner_id = $1
		ORDER BY fire_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reminders by owner: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (r *PostgresRemindersRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, owner_id, chat_id, receiver_id, body, fire_at, created_at
		FROM reminders
		WHERE fire_at <= $1
		ORDER BY fire_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (r *PostgresRemindersRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reminders WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reminders: %w", err)
	}
	return count, nil
}

func collectReminders(rows pgx.Rows) ([]*domain.Reminder, error) {
	items := make([]*domain.Reminder, 0)
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		items = append(items, reminder)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reminders: %w", rows.Err())
	}
	return items, nil
}

func scanReminder(row pgx.Row) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := row.Scan(
		&reminder.Name,
		&reminder.OwnerID,
		&reminder.ChatID,
		&reminder.ReceiverID,
		&reminder.Text,
		&reminder.FireAt,
		&reminder.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	reminder.Status = domain.StatusScheduled
	return &reminder, nil
}
