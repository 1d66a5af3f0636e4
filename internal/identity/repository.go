package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned for lookups that match no user.
	ErrNotFound = errors.New("user not found")
	// ErrPhoneTaken is returned when a create collides with an existing phone number.
	ErrPhoneTaken = errors.New("phone number already registered")
)

// Repository persists users. Any error other than ErrNotFound / ErrPhoneTaken
// is a store failure and should be treated as transient by callers.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	UpdateProfile(ctx context.Context, id string, reg Registration) (User, error)
	// IncrementTokenVersion atomically advances the user's revocation
	// counter by one and returns the new value. Concurrent calls for the
	// same user must each advance the counter by exactly one.
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
	TokenVersion(ctx context.Context, id string) (int64, error)
}

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, phone_number, first_name, last_name, email, token_version, created_at, updated_at`

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, user.PhoneNumber, user.FirstName, user.LastName, nullable(user.Email),
		user.TokenVersion, user.CreatedAt.UTC(), user.UpdatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrPhoneTaken
	}
	return err
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// FindByPhone fetches a user by canonical phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	return scanUser(row)
}

// UpdateProfile overwrites the user's mutable profile fields.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, reg Registration) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `UPDATE users
        SET first_name = $1, last_name = $2, email = $3, updated_at = now()
        WHERE id = $4
        RETURNING `+userColumns,
		reg.FirstName, reg.LastName, nullable(reg.Email), userID)
	return scanUser(row)
}

// IncrementTokenVersion advances the revocation counter in a single UPDATE,
// so concurrent logouts serialize in the database and never lose an increment.
func (r *PostgresRepository) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrNotFound
	}
	var version int64
	err = r.db.QueryRow(ctx, `UPDATE users
        SET token_version = token_version + 1, updated_at = now()
        WHERE id = $1
        RETURNING token_version`, userID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// TokenVersion reads the current revocation counter.
func (r *PostgresRepository) TokenVersion(ctx context.Context, id string) (int64, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrNotFound
	}
	var version int64
	err = r.db.QueryRow(ctx, `SELECT token_version FROM users WHERE id = $1`, userID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanUser(r row) (User, error) {
	var (
		id        uuid.UUID
		email     *string
		createdAt time.Time
		updatedAt time.Time
		user      User
	)
	err := r.Scan(&id, &user.PhoneNumber, &user.FirstName, &user.LastName, &email,
		&user.TokenVersion, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	user.ID = id.String()
	if email != nil {
		user.Email = *email
	}
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return user, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
