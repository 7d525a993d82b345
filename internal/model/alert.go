package model

import "time"

// AlertSent records the best price a user has already been notified about
// for one product. At most one row exists per (user, product); existence
// implies a prior notification attempt.
type AlertSent struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	ProductID        string    `db:"product_id" json:"product_id"`
	LastAlertedPrice float64   `db:"last_alerted_price" json:"last_alerted_price"`
	LastAlertedAt    time.Time `db:"last_alerted_at" json:"last_alerted_at"`
}
