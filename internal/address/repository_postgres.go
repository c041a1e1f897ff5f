package address

import (
	"database/sql"
)

// PostgresRepository stores addresses in a dedicated table with a
// foreign key to users.
type PostgresRepository struct {
	db *sql.DB
}

const (
	addressColumns = `address_id, user_id, address_type, street, city, postal_code`

	insertAddressQuery = `
		INSERT INTO addresses (user_id, address_type, street, city, postal_code)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING ` + addressColumns

	updateAddressQuery = `
		UPDATE addresses
		SET address_type=$3, street=$4, city=$5, postal_code=$6
		WHERE user_id=$1 AND address_id=$2
		RETURNING ` + addressColumns

	deleteAddressQuery = `
		DELETE FROM addresses WHERE user_id=$1 AND address_id=$2
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetAddresses(userID int) ([]Address, error) {
	rows, err := r.db.Query(`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY address_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.AddressID, &a.UserID, &a.AddressType, &a.Street, &a.City, &a.PostalCode); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByIDForUser(userID, addressID int) (Address, error) {
	var a Address
	err := r.db.QueryRow(`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND address_id = $2`, userID, addressID).
		Scan(&a.AddressID, &a.UserID, &a.AddressType, &a.Street, &a.City, &a.PostalCode)
	if err == sql.ErrNoRows {
		return Address{}, ErrNotFound
	}
	if err != nil {
		return Address{}, err
	}
	return a, nil
}

func (r *PostgresRepository) AddAddress(userID int, addressType, street, city, postalCode string) (Address, error) {
	var a Address
	err := r.db.QueryRow(insertAddressQuery, userID, addressType, street, city, postalCode).
		Scan(&a.AddressID, &a.UserID, &a.AddressType, &a.Street, &a.City, &a.PostalCode)
	if err != nil {
		return Address{}, err
	}
	return a, nil
}

func (r *PostgresRepository) UpdateAddress(userID, addressID int, addressType, street, city, postalCode string) (Address, error) {
	var a Address
	err := r.db.QueryRow(updateAddressQuery, userID, addressID, addressType, street, city, postalCode).
		Scan(&a.AddressID, &a.UserID, &a.AddressType, &a.Street, &a.City, &a.PostalCode)
	if err == sql.ErrNoRows {
		return Address{}, ErrNotFound
	}
	if err != nil {
		return Address{}, err
	}
	return a, nil
}

func (r *PostgresRepository) DeleteAddress(userID, addressID int) error {
	res, err := r.db.Exec(deleteAddressQuery, userID, addressID)
	if err != nil {
		return err
	}
	cnt, _ := res.RowsAffected()
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}
