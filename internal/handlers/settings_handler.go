package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/repository"
)

// SettingsHandler manages the store-wide fulfillment settings
type SettingsHandler struct {
	settingsRepo repository.SettingsRepository
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsRepo repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo}
}

// GetSettings returns the store settings with rate rules
// @Summary Get store settings
// @Tags settings
// @Produce json
// @Success 200 {object} models.StoreSettings
// @Router /admin/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsRepo.Get()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettingsRequest is the admin settings update body. Rate rules
// replace the existing tables wholesale, in the order given.
type UpdateSettingsRequest struct {
	GlobalTaxRate         *float64                `json:"globalTaxRate"`
	OriginState           *string                 `json:"originState"`
	OriginPincode         *string                 `json:"originPincode"`
	DefaultShippingCost   *float64                `json:"defaultShippingCost"`
	FreeShippingThreshold *float64                `json:"freeShippingThreshold"`
	CODEnabled            *bool                   `json:"codEnabled"`
	WeightRules           []models.WeightRateRule `json:"weightRules"`
	VolumeRules           []models.VolumeRateRule `json:"volumeRules"`
}

// UpdateSettings updates the store settings
// @Summary Update store settings
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body UpdateSettingsRequest true "Settings update"
// @Success 200 {object} models.StoreSettings
// @Failure 400 {object} ErrorResponse
// @Router /admin/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	settings, err := h.settingsRepo.Get()
	if err != nil {
		respondError(c, err)
		return
	}

	if req.GlobalTaxRate != nil {
		if *req.GlobalTaxRate < 0 || *req.GlobalTaxRate > 100 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid tax rate",
				Message: "globalTaxRate must be between 0 and 100",
			})
			return
		}
		settings.GlobalTaxRate = *req.GlobalTaxRate
	}
	if req.OriginState != nil {
		settings.OriginState = *req.OriginState
	}
	if req.OriginPincode != nil {
		settings.OriginPincode = *req.OriginPincode
	}
	if req.DefaultShippingCost != nil {
		settings.DefaultShippingCost = *req.DefaultShippingCost
	}
	if req.FreeShippingThreshold != nil {
		settings.FreeShippingThreshold = *req.FreeShippingThreshold
	}
	if req.CODEnabled != nil {
		settings.CODEnabled = *req.CODEnabled
	}
	if req.WeightRules != nil {
		settings.WeightRules = req.WeightRules
	}
	if req.VolumeRules != nil {
		settings.VolumeRules = req.VolumeRules
	}

	if err := h.settingsRepo.Update(settings); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}
