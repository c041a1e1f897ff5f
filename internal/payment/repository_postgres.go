package payment

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

const paymentColumns = `payment_id, order_id, amount, currency, provider, status,
	provider_token, provider_transaction_id, provider_payment_id, error_message, created_at, updated_at`

func scanPayment(row *sql.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.PaymentID, &p.OrderID, &p.Amount, &p.Currency, &p.Provider, &p.Status,
		&p.ProviderToken, &p.ProviderTransactionID, &p.ProviderPaymentID, &p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(p Payment) (Payment, error) {
	if p.Status == "" {
		p.Status = StatusPending
	}
	now := time.Now().UTC()
	return scanPayment(r.db.QueryRow(`INSERT INTO payments
		(order_id, amount, currency, provider, status, provider_token, provider_transaction_id, provider_payment_id, error_message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,'','','','',$6,$6)
		RETURNING `+paymentColumns,
		p.OrderID, p.Amount, p.Currency, p.Provider, p.Status, now))
}

func (r *PostgresRepository) GetByID(paymentID int) (Payment, error) {
	return scanPayment(r.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID))
}

func (r *PostgresRepository) GetByOrderID(orderID int) (Payment, error) {
	return scanPayment(r.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY payment_id DESC LIMIT 1`, orderID))
}

func (r *PostgresRepository) SetSessionToken(paymentID int, token string) error {
	res, err := r.db.Exec(`UPDATE payments SET provider_token = $2, updated_at = $3 WHERE payment_id = $1`,
		paymentID, token, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkFailed(paymentID int, message string) error {
	res, err := r.db.Exec(`UPDATE payments SET status = $2, error_message = $3, updated_at = $4 WHERE payment_id = $1`,
		paymentID, StatusFailed, message, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteTx guards the PENDING -> COMPLETED transition with a status
// predicate: only a row still PENDING is updated, so concurrent
// confirmations race for one winner and a callback re-delivered after
// a refund cannot resurrect the payment.
func (r *PostgresRepository) CompleteTx(tx *sql.Tx, paymentID int, providerPaymentID, providerTransactionID string) (bool, error) {
	res, err := tx.Exec(`UPDATE payments
		SET status = $2, provider_payment_id = $3, provider_transaction_id = $4, updated_at = $5
		WHERE payment_id = $1 AND status = $6`,
		paymentID, StatusCompleted, providerPaymentID, providerTransactionID, time.Now().UTC(), StatusPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresRepository) RefundTx(tx *sql.Tx, paymentID int) error {
	res, err := tx.Exec(`UPDATE payments SET status = $2, updated_at = $3 WHERE payment_id = $1 AND status = $4`,
		paymentID, StatusRefunded, time.Now().UTC(), StatusCompleted)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
