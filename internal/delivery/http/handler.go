package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sotc/backend/internal/domain"
	"github.com/sotc/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysisService *usecase.AnalysisService
	cardService     *usecase.CardService
}

// NewHandler creates a new HTTP handler
func NewHandler(analysisService *usecase.AnalysisService, cardService *usecase.CardService) *Handler {
	return &Handler{
		analysisService: analysisService,
		cardService:     cardService,
	}
}

// ViewRequest is the body of a card view computation
type ViewRequest struct {
	Analysis domain.CollectionAnalysis `json:"analysis" binding:"required"`
	Width    int                       `json:"width"`
	Edits    map[int]string            `json:"edits"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sotc-backend",
		"version": "1.0.0",
	})
}

// Analyze identifies the watches in an uploaded photo and saves a card
func (h *Handler) Analyze(c *gin.Context) {
	if h.analysisService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"success": false,
			"error":   "Analysis service not configured",
			"type":    domain.KindAPIError,
		})
		return
	}

	var request usecase.AnalyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeError(c, domain.ErrInvalidImage, "Image data is required")
		return
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), &request)
	if err != nil {
		log.Printf("[HTTP] analyze failed request_id=%s: %v", c.GetString(requestIDKey), err)
		writeError(c, err, "")
		return
	}

	response := gin.H{
		"success": true,
		"data":    result.Analysis,
	}
	if result.CardID != "" {
		response["cardId"] = result.CardID
	}
	c.JSON(http.StatusOK, response)
}

// GetCard returns a saved card by id
func (h *Handler) GetCard(c *gin.Context) {
	card, err := h.cardService.GetCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeCardError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, card)
}

// GetCardView returns the rendered view of a saved card.
// ?width= is the measured card width; clients call again when it changes.
func (h *Handler) GetCardView(c *gin.Context) {
	width, err := parseWidth(c.Query("width"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width must be a positive integer"})
		return
	}

	view, err := h.cardService.GetCardView(c.Request.Context(), c.Param("id"), usecase.ViewOptions{Width: width})
	if err != nil {
		writeCardError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// BuildCardView computes a view for a posted analysis with label edits
func (h *Handler) BuildCardView(c *gin.Context) {
	var request ViewRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if request.Width < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width must be a positive integer"})
		return
	}

	view := h.cardService.BuildView(request.Analysis, usecase.ViewOptions{
		Width: request.Width,
		Edits: request.Edits,
	})
	c.JSON(http.StatusOK, view)
}

func parseWidth(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	width, err := strconv.Atoi(raw)
	if err != nil || width <= 0 {
		return 0, errors.New("invalid width")
	}
	return width, nil
}

// writeError writes the analyze error envelope
func writeError(c *gin.Context, err error, message string) {
	class := domain.ClassifyError(err)
	if message == "" {
		message = class.Message
	}
	c.JSON(class.Status, gin.H{
		"success":   false,
		"error":     message,
		"type":      class.Kind,
		"retryable": class.Retryable,
	})
}

func writeCardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCardID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID format"})
	case errors.Is(err, domain.ErrCardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
	default:
		log.Printf("[HTTP] card lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load card"})
	}
}
