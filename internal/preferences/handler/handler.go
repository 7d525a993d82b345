package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dav-92/catfoodbot/internal/alert"
	"github.com/dav-92/catfoodbot/internal/preferences"
	"github.com/dav-92/catfoodbot/internal/preferences/dto"
	"github.com/dav-92/catfoodbot/pkg/logger"
)

type PreferencesHandler struct {
	uc     preferences.UseCase
	alerts alert.UseCase
	logger logger.ZapLogger
}

func NewPreferencesHandler(uc preferences.UseCase, alerts alert.UseCase, log logger.ZapLogger) *PreferencesHandler {
	return &PreferencesHandler{uc: uc, alerts: alerts, logger: log}
}

func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.uc.GetOrCreate(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.respondError(c, err, "failed to load preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *PreferencesHandler) UpdatePreferences(c *gin.Context) {
	var input dto.UpdatePreferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	input.UserID = c.Param("userID")

	prefs, err := h.uc.Update(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err, "failed to update preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *PreferencesHandler) AddBrand(c *gin.Context) {
	var input dto.AddBrandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	prefs, err := h.uc.AddBrand(c.Request.Context(), c.Param("userID"), input.Brand)
	if err != nil {
		h.respondError(c, err, "failed to add brand")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *PreferencesHandler) RemoveBrand(c *gin.Context) {
	prefs, err := h.uc.RemoveBrand(c.Request.Context(), c.Param("userID"), c.Param("brand"))
	if err != nil {
		h.respondError(c, err, "failed to remove brand")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ResetAlerts clears the user's alert history so every currently qualifying
// deal re-notifies on the next cycle.
func (h *PreferencesHandler) ResetAlerts(c *gin.Context) {
	removed, err := h.alerts.Reset(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.logger.Error("alert reset failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *PreferencesHandler) respondError(c *gin.Context, err error, msg string) {
	if errors.Is(err, preferences.ErrInvalidPreference) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
