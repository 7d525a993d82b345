package alert

import "context"

// UseCase is the alert-deduplication decision point. Per (user, product) it
// moves through: Unseen -> Alerted(price) -> Alerted(lower price) -> ... and
// back to Unseen only via Reset.
type UseCase interface {
	// ShouldAlert reports whether a qualifying observation at candidatePrice
	// still needs a notification: yes when no alert was ever sent, or when
	// the price improved below the last alerted price; no otherwise.
	ShouldAlert(ctx context.Context, userID, productID string, candidatePrice float64) (bool, error)

	// RecordAlert marks (user, product) as alerted at price. Upserts the
	// single live record per pair.
	RecordAlert(ctx context.Context, userID, productID string, price float64) error

	// Reset deletes every AlertSent row for the user, re-arming all
	// currently qualifying deals. Explicit and user-triggered only.
	Reset(ctx context.Context, userID string) (int64, error)
}
