package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/assessment-api/internal/handler/dto"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/internal/service"
)

// AttemptHandler handles attempt lifecycle requests.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new attempt handler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// StartAttempt handles POST /api/quizzes/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID, ok := currentUserID(c)
	if !ok {
		h.handleAttemptError(c, apperrors.ErrUnauthorized)
		return
	}

	attempt, err := h.attemptService.Start(userID, quizID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAttemptResponse(attempt, time.Now()))
}

// RecordAnswerRequest carries one answer selection. An empty selection clears
// the answer for the question.
type RecordAnswerRequest struct {
	QuestionID uint  `json:"question_id" binding:"required"`
	Selection  []int `json:"selection"`
}

// RecordAnswer handles PUT /api/attempts/:id/answers
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID, ok := currentUserID(c)
	if !ok {
		h.handleAttemptError(c, apperrors.ErrUnauthorized)
		return
	}

	var req RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.attemptService.RecordAnswer(attemptID, userID, req.QuestionID, req.Selection)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt, time.Now()))
}

// SubmitAttempt handles POST /api/attempts/:id/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID, ok := currentUserID(c)
	if !ok {
		h.handleAttemptError(c, apperrors.ErrUnauthorized)
		return
	}

	attempt, err := h.attemptService.Submit(attemptID, userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt, time.Now()))
}

// GetAttempt handles GET /api/attempts/:id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID, ok := currentUserID(c)
	if !ok {
		h.handleAttemptError(c, apperrors.ErrUnauthorized)
		return
	}

	attempt, err := h.attemptService.Get(attemptID, userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt, time.Now()))
}

// GetMyAttempts handles GET /api/attempts — the caller's finished attempts,
// newest first.
func (h *AttemptHandler) GetMyAttempts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.handleAttemptError(c, apperrors.ErrUnauthorized)
		return
	}

	limit, offset, page := parsePagination(c, 10)

	attempts, err := h.attemptService.History(userID, limit, offset)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": dto.NewListAttemptResponse(attempts, time.Now()),
		"page":     page,
		"per_page": limit,
	})
}

// handleAttemptError maps attempt state machine errors to HTTP responses.
// ErrExpired gets 410: the resource's working window is gone, which is
// distinct from the 409 of an impossible transition.
func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrInvalidState) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrExpired) {
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrAttemptLimitExceeded) ||
		errors.Is(err, apperrors.ErrNotAvailable) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in AttemptHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
