package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// currentUserID returns the authenticated user's id set by the auth
// middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := raw.(uint)
	return userID, ok
}

// parsePagination reads page/page_size query params with sane bounds and
// returns limit plus offset.
func parsePagination(c *gin.Context, defaultSize int) (limit, offset, page int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if err != nil || limit < 1 || limit > 100 {
		limit = defaultSize
	}

	return limit, (page - 1) * limit, page
}
