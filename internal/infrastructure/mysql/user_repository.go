package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auction-stream/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// UpsertByGoogleID inserts the user on first sign-in and refreshes
// email, name, and picture on subsequent ones.
func (r *MySQLUserRepository) UpsertByGoogleID(ctx context.Context, claims *domain.GoogleClaims) (*domain.User, error) {
	now := time.Now()
	query := `
        INSERT INTO users (google_id, email, name, picture, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            email = VALUES(email),
            name = VALUES(name),
            picture = VALUES(picture),
            updated_at = VALUES(updated_at)
    `
	_, err := r.db.ExecContext(ctx, query,
		claims.Subject, claims.Email, claims.Name, claims.Picture, now, now)
	if err != nil {
		return nil, err
	}

	return r.getByGoogleID(ctx, claims.Subject)
}

func (r *MySQLUserRepository) getByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	query := `
        SELECT id, google_id, email, name, picture, created_at, updated_at
        FROM users WHERE google_id = ?
    `

	var user domain.User
	var picture sql.NullString

	err := r.db.QueryRowContext(ctx, query, googleID).Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.Name,
		&picture, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	user.Picture = picture.String
	return &user, nil
}

func (r *MySQLUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
        SELECT id, google_id, email, name, picture, created_at, updated_at
        FROM users WHERE id = ?
    `

	var user domain.User
	var picture sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.GoogleID, &user.Email, &user.Name,
		&picture, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	user.Picture = picture.String
	return &user, nil
}

func (r *MySQLUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `
        SELECT id, google_id, email, name, picture, created_at, updated_at
        FROM users
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var picture sql.NullString

		err := rows.Scan(&user.ID, &user.GoogleID, &user.Email, &user.Name,
			&picture, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, err
		}

		user.Picture = picture.String
		users = append(users, &user)
	}

	return users, rows.Err()
}
