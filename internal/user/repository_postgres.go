package user

import (
	"database/sql"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `user_id, email, password, first_name, last_name, phone, created_at, updated_at`

func (r *PostgresRepository) GetByID(id int) (User, error) {
	var u User
	err := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(email string) (User, error) {
	var u User
	err := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(u User) (User, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	err := r.db.QueryRow(`INSERT INTO users (email, password, first_name, last_name, phone, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
		RETURNING `+userColumns,
		u.Email, u.Password, u.FirstName, u.LastName, u.Phone, now).
		Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Update(id int, u User) (User, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	err := r.db.QueryRow(`UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, updated_at = $5
		WHERE user_id = $1
		RETURNING `+userColumns,
		id, u.FirstName, u.LastName, u.Phone, now).
		Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
