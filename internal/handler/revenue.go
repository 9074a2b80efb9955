package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type dailyRevenueResponse struct {
	Date         string  `json:"date"`
	TotalRevenue float64 `json:"total_revenue"`
}

type monthlyRevenueResponse struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	TotalRevenue float64 `json:"total_revenue"`
}

type yearlyRevenueResponse struct {
	Year         int     `json:"year"`
	TotalRevenue float64 `json:"total_revenue"`
}

// queryInt parses an optional integer query parameter. A malformed value
// aborts the request with a 400.
func queryInt(c *gin.Context, name string) (*int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &v, true
}

func (h *Handler) dailyRevenue(c *gin.Context) {
	var date *time.Time
	if raw, ok := c.GetQuery("date"); ok {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		date = &parsed
	}

	report, err := h.revenue.Daily(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dailyRevenueResponse{
		Date:         report.Date.Format("2006-01-02"),
		TotalRevenue: report.TotalRevenue.InexactFloat64(),
	})
}

func (h *Handler) monthlyRevenue(c *gin.Context) {
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	month, ok := queryInt(c, "month")
	if !ok {
		return
	}

	report, err := h.revenue.Monthly(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, monthlyRevenueResponse{
		Year:         report.Year,
		Month:        report.Month,
		TotalRevenue: report.TotalRevenue.InexactFloat64(),
	})
}

func (h *Handler) yearlyRevenue(c *gin.Context) {
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}

	report, err := h.revenue.Yearly(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, yearlyRevenueResponse{
		Year:         report.Year,
		TotalRevenue: report.TotalRevenue.InexactFloat64(),
	})
}
