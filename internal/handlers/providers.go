package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/services"
)

type ProvidersHandler struct {
	log           *logger.Logger
	searchService services.SearchService
}

func NewProvidersHandler(log *logger.Logger, searchService services.SearchService) *ProvidersHandler {
	return &ProvidersHandler{
		log:           log.With("handler", "ProvidersHandler"),
		searchService: searchService,
	}
}

// Search handles GET /providers?drg=&zip=&radius_km=.
func (h *ProvidersHandler) Search(c *gin.Context) {
	drg := strings.TrimSpace(c.Query("drg"))
	zip := strings.TrimSpace(c.Query("zip"))

	radiusKm := services.DefaultRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_radius", "radius_km must be a number")
			return
		}
		radiusKm = parsed
	}

	results, err := h.searchService.SearchProviders(c.Request.Context(), drg, zip, radiusKm)
	if err != nil {
		h.log.Error("Provider search failed", "error", err, "drg", drg, "zip", zip)
		RespondError(c, http.StatusInternalServerError, "search_failed", "internal server error")
		return
	}
	RespondOK(c, results)
}
