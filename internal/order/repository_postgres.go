package order

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `order_id, user_id, status, total_price, shipping_address_id, billing_address_id, created_at`

func (r *PostgresRepository) CreateTx(tx *sql.Tx, ord Order) (Order, error) {
	if ord.CreatedAt.IsZero() {
		ord.CreatedAt = time.Now().UTC()
	}
	err := tx.QueryRow(`INSERT INTO orders (user_id, status, total_price, shipping_address_id, billing_address_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING order_id`,
		ord.UserID, ord.Status, ord.TotalPrice, ord.ShippingAddressID, ord.BillingAddressID, ord.CreatedAt).
		Scan(&ord.OrderID)
	if err != nil {
		return Order{}, err
	}

	for i := range ord.Items {
		ord.Items[i].OrderID = ord.OrderID
		err := tx.QueryRow(`INSERT INTO order_items (order_id, variant_id, product_name, category, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING order_item_id`,
			ord.OrderID, ord.Items[i].VariantID, ord.Items[i].ProductName, ord.Items[i].Category,
			ord.Items[i].Quantity, ord.Items[i].UnitPrice).
			Scan(&ord.Items[i].OrderItemID)
		if err != nil {
			return Order{}, err
		}
	}

	return ord, nil
}

func (r *PostgresRepository) GetByID(orderID int) (Order, error) {
	var ord Order
	err := r.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID).
		Scan(&ord.OrderID, &ord.UserID, &ord.Status, &ord.TotalPrice, &ord.ShippingAddressID, &ord.BillingAddressID, &ord.CreatedAt)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	items, err := r.loadItems([]int{ord.OrderID})
	if err != nil {
		return Order{}, err
	}
	ord.Items = items[ord.OrderID]
	return ord, nil
}

func (r *PostgresRepository) GetByIDForUser(userID, orderID int) (Order, error) {
	ord, err := r.GetByID(orderID)
	if err != nil {
		return Order{}, err
	}
	if ord.UserID != userID {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

func (r *PostgresRepository) ListByUser(userID int) ([]Order, error) {
	rows, err := r.db.Query(`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY order_id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	ids := make([]int, 0)
	for rows.Next() {
		var ord Order
		if err := rows.Scan(&ord.OrderID, &ord.UserID, &ord.Status, &ord.TotalPrice, &ord.ShippingAddressID, &ord.BillingAddressID, &ord.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, ord)
		ids = append(ids, ord.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.loadItems(ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].OrderID]
	}
	return orders, nil
}

// loadItems fetches the items of all given orders in one query.
func (r *PostgresRepository) loadItems(orderIDs []int) (map[int][]OrderItem, error) {
	out := make(map[int][]OrderItem)
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(`SELECT order_item_id, order_id, variant_id, product_name, category, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1::int[])
		ORDER BY order_item_id`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.OrderItemID, &item.OrderID, &item.VariantID, &item.ProductName, &item.Category, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) SetStatusTx(tx *sql.Tx, orderID int, status string) error {
	res, err := tx.Exec(`UPDATE orders SET status = $2 WHERE order_id = $1`, orderID, status)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
