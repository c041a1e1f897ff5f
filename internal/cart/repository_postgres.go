package cart

import (
	"database/sql"

	"github.com/lib/pq"
)

// PostgresRepository stores one cart row per user and one cart_items
// row per variant in the cart.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) cartID(userID int) (int, error) {
	var id int
	// upsert keeps "one cart per user" true even under concurrent adds
	err := r.db.QueryRow(`INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING cart_id`, userID).Scan(&id)
	return id, err
}

func (r *PostgresRepository) load(userID int) (Cart, error) {
	c := Cart{UserID: userID, Items: make([]CartItem, 0)}
	id, err := r.cartID(userID)
	if err != nil {
		return Cart{}, err
	}
	c.CartID = id

	rows, err := r.db.Query(`SELECT cart_item_id, variant_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY cart_item_id`, id)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.CartItemID, &item.VariantID, &item.Quantity); err != nil {
			return Cart{}, err
		}
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

func (r *PostgresRepository) GetCart(userID int) (Cart, error) {
	return r.load(userID)
}

func (r *PostgresRepository) AddItem(userID, variantID, qty int) (Cart, error) {
	id, err := r.cartID(userID)
	if err != nil {
		return Cart{}, err
	}
	if _, err := r.db.Exec(`INSERT INTO cart_items (cart_id, variant_id, quantity) VALUES ($1,$2,$3)
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		id, variantID, qty); err != nil {
		return Cart{}, err
	}
	return r.load(userID)
}

func (r *PostgresRepository) SetItemQuantity(userID, cartItemID, qty int) (Cart, error) {
	res, err := r.db.Exec(`UPDATE cart_items SET quantity = $3
		FROM carts
		WHERE cart_items.cart_id = carts.cart_id AND carts.user_id = $1 AND cart_items.cart_item_id = $2`,
		userID, cartItemID, qty)
	if err != nil {
		return Cart{}, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return Cart{}, ErrNotFound
	}
	return r.load(userID)
}

func (r *PostgresRepository) RemoveItem(userID, cartItemID int) (Cart, error) {
	res, err := r.db.Exec(`DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.cart_id AND carts.user_id = $1 AND cart_items.cart_item_id = $2`,
		userID, cartItemID)
	if err != nil {
		return Cart{}, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return Cart{}, ErrNotFound
	}
	return r.load(userID)
}

func (r *PostgresRepository) GetItem(userID, cartItemID int) (CartItem, error) {
	var item CartItem
	err := r.db.QueryRow(`SELECT cart_item_id, variant_id, quantity FROM cart_items
		JOIN carts ON cart_items.cart_id = carts.cart_id
		WHERE carts.user_id = $1 AND cart_items.cart_item_id = $2`,
		userID, cartItemID).Scan(&item.CartItemID, &item.VariantID, &item.Quantity)
	if err == sql.ErrNoRows {
		return CartItem{}, ErrNotFound
	}
	if err != nil {
		return CartItem{}, err
	}
	return item, nil
}

func (r *PostgresRepository) RemoveItemsTx(tx *sql.Tx, userID int, cartItemIDs []int) error {
	if len(cartItemIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(`DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.cart_id AND carts.user_id = $1
			AND cart_items.cart_item_id = ANY($2::int[])`, userID, pq.Array(cartItemIDs))
	return err
}
