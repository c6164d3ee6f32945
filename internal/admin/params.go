package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parseSeqParam(c *gin.Context) (int, bool) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seq must be an integer"})
		return 0, false
	}
	return seq, true
}

func parseTimeRangeParams(c *gin.Context) (start, end float64, ok bool) {
	startStr := c.Query("start")
	endStr := c.Query("end")
	start, errStart := strconv.ParseFloat(startStr, 64)
	end, errEnd := strconv.ParseFloat(endStr, 64)
	if errStart != nil || errEnd != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be numeric unix timestamps"})
		return 0, 0, false
	}
	return start, end, true
}
