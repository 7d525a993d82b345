package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/deal"
	"github.com/dav-92/catfoodbot/internal/preferences"
	"github.com/dav-92/catfoodbot/internal/product"
	"github.com/dav-92/catfoodbot/internal/scheduler"
	"github.com/dav-92/catfoodbot/internal/tracker"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

const dealStaleness = 48 * time.Hour

type TrackerHandler struct {
	tracker   *tracker.Tracker
	scheduler *scheduler.Scheduler
	products  product.UseCase
	prefs     preferences.UseCase
	logger    logger.ZapLogger
}

func NewTrackerHandler(
	t *tracker.Tracker,
	s *scheduler.Scheduler,
	products product.UseCase,
	prefs preferences.UseCase,
	log logger.ZapLogger,
) *TrackerHandler {
	return &TrackerHandler{
		tracker:   t,
		scheduler: s,
		products:  products,
		prefs:     prefs,
		logger:    log,
	}
}

// GetDeals recomputes the user's current deals on demand, without touching
// the dedup store. What a cycle would alert on and what this returns are the
// same set.
func (h *TrackerHandler) GetDeals(c *gin.Context) {
	ctx := c.Request.Context()

	userPrefs, err := h.prefs.GetOrCreate(ctx, c.Param("userID"))
	if err != nil {
		h.logger.Error("load preferences failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}

	current, err := h.products.CurrentProducts(ctx, dealStaleness)
	if err != nil {
		h.logger.Error("load current products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load products"})
		return
	}

	grouped := deal.GroupCheapest(deal.FindDeals(current, *userPrefs))

	type offerResponse struct {
		Site      string  `json:"site"`
		UnitPrice float64 `json:"unit_price"`
		URL       string  `json:"url"`
	}
	type dealResponse struct {
		ProductID  string          `json:"product_id"`
		Site       string          `json:"site"`
		Brand      string          `json:"brand"`
		Name       string          `json:"name"`
		Price      float64         `json:"price"`
		UnitPrice  float64         `json:"unit_price"`
		URL        string          `json:"url"`
		OtherSites []offerResponse `json:"other_sites,omitempty"`
	}

	out := make([]dealResponse, 0, len(grouped))
	for _, g := range grouped {
		d := dealResponse{
			ProductID: g.Product.ID,
			Site:      g.Product.Site,
			Brand:     g.Product.Brand,
			Name:      g.Product.Name,
			Price:     g.Product.Price,
			UnitPrice: g.UnitPrice,
			URL:       g.Product.URL,
		}
		for _, o := range g.OtherSites {
			d.OtherSites = append(d.OtherSites, offerResponse{
				Site:      o.Site,
				UnitPrice: o.UnitPrice,
				URL:       o.URL,
			})
		}
		out = append(out, d)
	}
	c.JSON(http.StatusOK, gin.H{"deals": out, "total": len(out)})
}

func (h *TrackerHandler) GetStatus(c *gin.Context) {
	freshness, err := h.products.DataFreshness(c.Request.Context())
	if err != nil {
		h.logger.Error("data freshness lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read status"})
		return
	}

	nextCheck, nextCleanup := h.scheduler.NextRuns()
	c.JSON(http.StatusOK, gin.H{
		"data_freshness": freshness,
		"next_check":     nextCheck,
		"next_cleanup":   nextCleanup,
		"last_cycle":     h.tracker.LastStats(),
	})
}

// TriggerRun starts a pipeline run now, or joins the one already in flight.
func (h *TrackerHandler) TriggerRun(c *gin.Context) {
	stats, err := h.scheduler.TriggerNow(c.Request.Context())
	if err != nil {
		h.logger.Error("manual run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
