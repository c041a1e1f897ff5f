package catalog

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

const variantColumns = `variant_id, product_name, category, parent_category, price, stock`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List() ([]Variant, error) {
	rows, err := r.db.Query(`SELECT ` + variantColumns + ` FROM product_variants ORDER BY variant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Variant, 0)
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.VariantID, &v.ProductName, &v.Category, &v.ParentCategory, &v.Price, &v.Stock); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetVariant(variantID int) (Variant, error) {
	var v Variant
	err := r.db.QueryRow(`SELECT `+variantColumns+` FROM product_variants WHERE variant_id = $1`, variantID).
		Scan(&v.VariantID, &v.ProductName, &v.Category, &v.ParentCategory, &v.Price, &v.Stock)
	if err == sql.ErrNoRows {
		return Variant{}, ErrNotFound
	}
	if err != nil {
		return Variant{}, err
	}
	return v, nil
}

// DebitStockTx performs the conditional decrement in a single UPDATE;
// the WHERE clause is what keeps two concurrent checkouts from both
// succeeding past the available quantity.
func (r *PostgresRepository) DebitStockTx(tx *sql.Tx, variantID, qty int) error {
	res, err := tx.Exec(`UPDATE product_variants SET stock = stock - $2 WHERE variant_id = $1 AND stock >= $2`, variantID, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM product_variants WHERE variant_id = $1)`, variantID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *PostgresRepository) CreditStockTx(tx *sql.Tx, variantID, qty int) error {
	res, err := tx.Exec(`UPDATE product_variants SET stock = stock + $2 WHERE variant_id = $1`, variantID, qty)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
