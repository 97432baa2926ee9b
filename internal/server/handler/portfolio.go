package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eveexchange/backend/internal/domain"
	"github.com/eveexchange/backend/internal/service"
)

// PortfolioHandler serves the portfolio CRUD and multibuy endpoints.
type PortfolioHandler struct {
	portfolios *service.PortfolioService
	logger     *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(portfolios *service.PortfolioService, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, logger: logger}
}

// createPortfolioRequest is the POST body for portfolio creation.
type createPortfolioRequest struct {
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Kind             int                `json:"type"`
	Efficiency       int64              `json:"efficiency"`
	Components       []domain.Component `json:"components"`
	IndustryTypeID   int64              `json:"industryTypeID"`
	IndustryQuantity int64              `json:"industryQuantity"`
}

// Create stores a new portfolio for the authenticated user.
// POST /api/portfolios
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	p, err := h.portfolios.Create(r.Context(), domain.Portfolio{
		UserID:           userID,
		Name:             req.Name,
		Description:      req.Description,
		Kind:             domain.PortfolioKind(req.Kind),
		Efficiency:       req.Efficiency,
		Components:       req.Components,
		IndustryTypeID:   req.IndustryTypeID,
		IndustryQuantity: req.IndustryQuantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// List returns the authenticated user's portfolios.
// GET /api/portfolios
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	portfolios, err := h.portfolios.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if portfolios == nil {
		portfolios = []domain.Portfolio{}
	}
	writeJSON(w, http.StatusOK, portfolios)
}

// Get returns one portfolio.
// GET /api/portfolios/{id}
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	p, err := h.portfolios.Get(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete removes one portfolio.
// DELETE /api/portfolios/{id}
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	if err := h.portfolios.Delete(r.Context(), userID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Multibuy estimates the acquisition cost of a portfolio's components.
// GET /api/portfolios/{id}/multibuy?region=&quantity=
func (h *PortfolioHandler) Multibuy(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	region, err := queryInt64(r, "region", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid region")
		return
	}
	// The multiplier is a whole number of basket repetitions; fractional
	// values are rejected, not truncated.
	multiplier, err := queryInt64(r, "quantity", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quantity")
		return
	}

	report, err := h.portfolios.Multibuy(r.Context(), userID, id, region, multiplier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
