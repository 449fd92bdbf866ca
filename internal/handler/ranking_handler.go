package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/assessment-api/internal/domain/repository"
	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/internal/service"
)

// RankingHandler handles standings and leaderboard export endpoints.
type RankingHandler struct {
	rankingService *service.RankingService
	neighborWindow int
}

// NewRankingHandler creates a new ranking handler. neighborWindow is how many
// users are shown on each side of the caller in the "around me" view.
func NewRankingHandler(rankingService *service.RankingService, neighborWindow int) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		neighborWindow: neighborWindow,
	}
}

// scopeFromQuery reads the optional quiz_id filter. Absent means all quizzes.
func scopeFromQuery(c *gin.Context) (repository.AttemptScope, error) {
	var scope repository.AttemptScope
	if raw := c.Query("quiz_id"); raw != "" {
		quizID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return scope, fmt.Errorf("%w: invalid quiz_id %q", apperrors.ErrValidation, raw)
		}
		id := uint(quizID)
		scope.QuizID = &id
	}
	return scope, nil
}

// GetStandings handles GET /api/rankings?quiz_id=&page=&page_size=
func (h *RankingHandler) GetStandings(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		h.handleRankingError(c, err)
		return
	}

	limit, offset, page := parsePagination(c, 20)

	standings, total, err := h.rankingService.Standings(scope, limit, offset)
	if err != nil {
		h.handleRankingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"standings": standings,
		"total":     total,
		"page":      page,
		"per_page":  limit,
	})
}

// GetNeighbors handles GET /api/rankings/me?quiz_id=&window=
func (h *RankingHandler) GetNeighbors(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		h.handleRankingError(c, apperrors.ErrUnauthorized)
		return
	}

	scope, err := scopeFromQuery(c)
	if err != nil {
		h.handleRankingError(c, err)
		return
	}

	window := h.neighborWindow
	if raw := c.Query("window"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 && parsed <= 50 {
			window = parsed
		}
	}

	neighbors, err := h.rankingService.Neighbors(userID, scope, window)
	if err != nil {
		h.handleRankingError(c, err)
		return
	}

	c.JSON(http.StatusOK, neighbors)
}

// ExportStandings exports the full standings in CSV or Excel format.
// GET /api/admin/rankings/export?quiz_id=&format=csv|xlsx
func (h *RankingHandler) ExportStandings(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		h.handleRankingError(c, err)
		return
	}

	standings, err := h.rankingService.Aggregate(scope)
	if err != nil {
		h.handleRankingError(c, err)
		return
	}

	filename := fmt.Sprintf("standings_%s", time.Now().Format("2006-01-02"))
	if scope.QuizID != nil {
		filename = fmt.Sprintf("quiz_%d_standings_%s", *scope.QuizID, time.Now().Format("2006-01-02"))
	}

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		h.exportXLSX(c, standings, filename)
	default:
		h.exportCSV(c, standings, filename)
	}
}

var exportHeader = []string{
	"Rank", "User", "Average Score", "Best Score", "Total Marks",
	"Attempts", "Pass Rate", "Accuracy", "First Submitted",
}

// exportCSV writes standings as CSV with proper escaping of special
// characters.
func (h *RankingHandler) exportCSV(c *gin.Context, standings []service.UserStanding, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM so Excel detects UTF-8
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader)

	for i := range standings {
		s := &standings[i]
		name := s.Username
		if name == "" {
			name = fmt.Sprintf("user #%d", s.UserID)
		}
		writer.Write([]string{
			strconv.Itoa(s.Rank),
			sanitizeForExcel(name),
			strconv.FormatFloat(s.AverageScore, 'f', 2, 64),
			strconv.FormatFloat(s.BestScore, 'f', 2, 64),
			strconv.FormatFloat(s.TotalMarksObtained, 'f', 2, 64),
			strconv.Itoa(s.TotalAttempts),
			strconv.FormatFloat(s.PassRate, 'f', 2, 64),
			strconv.FormatFloat(s.Accuracy, 'f', 2, 64),
			s.FirstSubmittedAt.Format(time.RFC3339),
		})
	}
}

// exportXLSX writes standings as Excel using a StreamWriter, which keeps
// memory flat for large leaderboards.
func (h *RankingHandler) exportXLSX(c *gin.Context, standings []service.UserStanding, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Standings"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RankingHandler] creating stream writer failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	header := make([]interface{}, len(exportHeader))
	for i, col := range exportHeader {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		log.Printf("[RankingHandler] writing header row failed: %v", err)
	}

	for i := range standings {
		s := &standings[i]
		name := s.Username
		if name == "" {
			name = fmt.Sprintf("user #%d", s.UserID)
		}

		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			s.Rank, sanitizeForExcel(name), s.AverageScore, s.BestScore,
			s.TotalMarksObtained, s.TotalAttempts, s.PassRate, s.Accuracy,
			s.FirstSubmittedAt.Format(time.RFC3339),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[RankingHandler] writing row %d failed: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RankingHandler] flushing stream writer failed: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RankingHandler] writing Excel response failed: %v", err)
	}
}

// sanitizeForExcel guards exported cells against formula injection in
// Excel/LibreOffice.
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleRankingError maps ranking errors to HTTP responses.
func (h *RankingHandler) handleRankingError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in RankingHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
