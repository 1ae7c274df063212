package http

import (
	_ "embed"
	"net/http"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

//go:embed static/index.html
var indexHTML []byte

func indexHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.HTMLBlob(http.StatusOK, indexHTML)
	}
}

type usageRequest struct {
	NumberDays *int `json:"number_days"`
}

// usageDataHandler answers POST /data {"number_days": N} with
// {"accounts": [...], "data": [...]}. A missing number_days uses the default.
func usageDataHandler(usage UsageFetcher, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req usageRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
		}

		days := 0
		if req.NumberDays != nil {
			if *req.NumberDays <= 0 || *req.NumberDays > 366 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "number_days must be between 1 and 366"})
			}
			days = *req.NumberDays
		}

		res, err := usage.Fetch(c.Request().Context(), days)
		if err != nil {
			log.Warn("usage report failed", zap.Int("days", days), zap.Error(err))

			return c.JSON(http.StatusBadGateway, map[string]string{"error": apperr.UserMessage(err)})
		}

		return c.JSON(http.StatusOK, res)
	}
}
