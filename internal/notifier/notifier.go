package notifier

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/deal"
	"github.com/dav-92/catfoodbot/pkg/broker"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

// DealNotification is the message published for the external delivery
// transport. The core neither knows nor retries delivery.
type DealNotification struct {
	UserID     string       `json:"user_id"`
	Site       string       `json:"site"`
	Brand      string       `json:"brand"`
	Name       string       `json:"name"`
	Price      float64      `json:"price"`
	UnitPrice  float64      `json:"unit_price"`
	URL        string       `json:"url"`
	OtherSites []OtherOffer `json:"other_sites,omitempty"`
	AlertedAt  time.Time    `json:"alerted_at"`
}

type OtherOffer struct {
	Site      string  `json:"site"`
	UnitPrice float64 `json:"unit_price"`
	URL       string  `json:"url"`
}

type Notifier interface {
	Notify(ctx context.Context, userID string, g deal.GroupedCandidate) error
}

type kafkaNotifier struct {
	producer *broker.KafkaProducer
	logger   logger.ZapLogger
}

func NewKafkaNotifier(producer *broker.KafkaProducer, log logger.ZapLogger) Notifier {
	return &kafkaNotifier{producer: producer, logger: log}
}

func (n *kafkaNotifier) Notify(ctx context.Context, userID string, g deal.GroupedCandidate) error {
	msg := DealNotification{
		UserID:    userID,
		Site:      g.Product.Site,
		Brand:     g.Product.Brand,
		Name:      g.Product.Name,
		Price:     g.Product.Price,
		UnitPrice: g.UnitPrice,
		URL:       g.Product.URL,
		AlertedAt: time.Now().UTC(),
	}
	for _, o := range g.OtherSites {
		msg.OtherSites = append(msg.OtherSites, OtherOffer{
			Site:      o.Site,
			UnitPrice: o.UnitPrice,
			URL:       o.URL,
		})
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := n.producer.Publish(ctx, []byte(userID), data); err != nil {
		return err
	}
	n.logger.Info("deal notification published",
		zap.String("user_id", userID),
		zap.String("site", msg.Site),
		zap.String("name", msg.Name),
		zap.Float64("unit_price", msg.UnitPrice),
	)
	return nil
}
