package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/assessment-api/internal/handler/dto"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/internal/service"
)

// AccessHandler handles subject access request workflow endpoints.
type AccessHandler struct {
	accessService *service.AccessService
}

// NewAccessHandler creates a new access handler.
func NewAccessHandler(accessService *service.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// RequestAccessRequest carries the contact details for a new access request.
type RequestAccessRequest struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"omitempty,max=30"`
}

// RequestAccess handles POST /api/subjects/:id/access-requests
func (h *AccessHandler) RequestAccess(c *gin.Context) {
	subjectID := c.MustGet("subjectID").(uint)
	userID, ok := currentUserID(c)
	if !ok {
		h.handleAccessError(c, apperrors.ErrUnauthorized)
		return
	}

	var req RequestAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.accessService.Request(userID, subjectID, req.Email, req.Phone)
	if err != nil {
		h.handleAccessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAccessRequestResponse(request))
}

// DecideAccessRequest carries an admin's decision on a pending request.
type DecideAccessRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=approve reject"`
}

// DecideAccess handles POST /api/admin/access-requests/:id/decision
func (h *AccessHandler) DecideAccess(c *gin.Context) {
	requestID := c.MustGet("requestID").(uint)

	var req DecideAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.accessService.Decide(c.Request.Context(), requestID, req.Outcome)
	if err != nil {
		h.handleAccessError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccessRequestResponse(request))
}

// ListAccessRequests handles GET /api/admin/access-requests?status=pending
func (h *AccessHandler) ListAccessRequests(c *gin.Context) {
	limit, offset, page := parsePagination(c, 20)

	requests, total, err := h.accessService.ListRequests(c.Query("status"), limit, offset)
	if err != nil {
		h.handleAccessError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": dto.NewListAccessRequestResponse(requests),
		"total":    total,
		"page":     page,
		"per_page": limit,
	})
}

// handleAccessError maps access workflow errors to HTTP responses.
func (h *AccessHandler) handleAccessError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrInvalidState) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in AccessHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
