package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/internal/scraper"
	"github.com/gin-gonic/gin"
)

// Scraper is the upstream the proxy forwards to.
type Scraper interface {
	MakeModel(ctx context.Context, category string, req scraper.MakeModelRequest) (json.RawMessage, error)
	Specs(ctx context.Context, category string, req scraper.SpecsRequest) (json.RawMessage, error)
	ServiceProviders(ctx context.Context, serviceType string, req scraper.ServiceProvidersRequest) (json.RawMessage, error)
}

type ScraperHandler struct {
	scraper Scraper
}

func NewScraperHandler(s Scraper) *ScraperHandler {
	return &ScraperHandler{scraper: s}
}

func (h *ScraperHandler) MakeModel(c *gin.Context) {
	var req scraper.MakeModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(msgInvalidBody))
		return
	}

	data, err := h.scraper.MakeModel(c.Request.Context(), c.Param("category"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *ScraperHandler) Specs(c *gin.Context) {
	var req scraper.SpecsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(msgInvalidBody))
		return
	}

	data, err := h.scraper.Specs(c.Request.Context(), c.Param("category"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *ScraperHandler) ServiceProviders(c *gin.Context) {
	var req scraper.ServiceProvidersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(msgInvalidBody))
		return
	}

	data, err := h.scraper.ServiceProviders(c.Request.Context(), c.Param("serviceType"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
