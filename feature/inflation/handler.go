package inflation

import (
	"errors"
	"time"

	"salary-tracker/core/bls"
	"salary-tracker/core/logger"
	"salary-tracker/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for inflation figures.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the inflation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/inflation")
	group.Get("/series/:id", h.HandleSeries)
	group.Delete("/series/:id/cache", h.HandleInvalidate)
	group.Get("/rate", h.HandleRate)
	group.Get("/annual/:year", h.HandleAnnual)
	group.Get("/purchasing-power", h.HandlePurchasingPower)
}

// HandleSeries returns the normalized observations of a series.
// @Summary Get Series
// @Description Fetches and normalizes a statistics series. Without a year range the upstream default window is used.
// @Tags inflation
// @Produce json
// @Param id path string true "Series ID (e.g. 'CUUR0000SA0')"
// @Param start_year query int false "First year"
// @Param end_year query int false "Last year"
// @Success 200 {array} series.Point "Points sorted by date"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 502 {object} map[string]string "Upstream Error"
// @Router /inflation/series/{id} [get]
func (h *Handler) HandleSeries(c *fiber.Ctx) error {
	var years *bls.YearRange
	startQ, endQ := c.Query("start_year"), c.Query("end_year")
	if startQ != "" || endQ != "" {
		start, err := utils.ParseYear(startQ)
		if err != nil {
			return badRequest(c, err)
		}
		end, err := utils.ParseYear(endQ)
		if err != nil {
			return badRequest(c, err)
		}
		years = &bls.YearRange{Start: start, End: end}
	}

	points, err := h.service.Series(c.UserContext(), c.Params("id"), years)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(points)
}

// HandleInvalidate drops the cached ranges of a series.
// @Summary Invalidate Series Cache
// @Tags inflation
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} map[string]interface{} "Dropped entries"
// @Router /inflation/series/{id}/cache [delete]
func (h *Handler) HandleInvalidate(c *fiber.Ctx) error {
	id := h.service.SeriesID(c.Params("id"))
	n := h.service.Invalidate(id)
	return c.JSON(fiber.Map{"series_id": id, "dropped": n})
}

// HandleRate computes point-to-point inflation.
// @Summary Point-to-Point Rate
// @Description Rate between the observations at or before start and end. End defaults to today.
// @Tags inflation
// @Produce json
// @Param series query string false "Series ID"
// @Param start query string true "Start date (YYYY-MM or YYYY-MM-DD)"
// @Param end query string false "End date (YYYY-MM or YYYY-MM-DD)"
// @Success 200 {object} RateReport "Rate"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "No Data"
// @Failure 502 {object} map[string]string "Upstream Error"
// @Router /inflation/rate [get]
func (h *Handler) HandleRate(c *fiber.Ctx) error {
	start, end, err := h.dates(c)
	if err != nil {
		return badRequest(c, err)
	}

	report, err := h.service.Rate(c.UserContext(), c.Query("series"), start, end)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// HandleAnnual computes year-over-year inflation.
// @Summary Annual Rate
// @Description Latest observation of the year against the latest observation of the previous year.
// @Tags inflation
// @Produce json
// @Param year path int true "Year"
// @Param series query string false "Series ID"
// @Success 200 {object} AnnualReport "Annual Rate"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "No Data"
// @Failure 502 {object} map[string]string "Upstream Error"
// @Router /inflation/annual/{year} [get]
func (h *Handler) HandleAnnual(c *fiber.Ctx) error {
	year, err := utils.ParseYear(c.Params("year"))
	if err != nil {
		return badRequest(c, err)
	}

	report, err := h.service.AnnualRate(c.UserContext(), c.Query("series"), year)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// HandlePurchasingPower restates a salary in end-period money.
// @Summary Purchasing Power
// @Description Adjusted salary = salary * (end value / start value). End defaults to today.
// @Tags inflation
// @Produce json
// @Param salary query string true "Salary earned at start"
// @Param start query string true "Start date (YYYY-MM or YYYY-MM-DD)"
// @Param end query string false "End date (YYYY-MM or YYYY-MM-DD)"
// @Param series query string false "Series ID"
// @Success 200 {object} PowerReport "Adjustment"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "No Data"
// @Failure 502 {object} map[string]string "Upstream Error"
// @Router /inflation/purchasing-power [get]
func (h *Handler) HandlePurchasingPower(c *fiber.Ctx) error {
	salary, err := utils.ParseAmount(c.Query("salary"))
	if err != nil {
		return badRequest(c, err)
	}
	start, end, err := h.dates(c)
	if err != nil {
		return badRequest(c, err)
	}

	report, err := h.service.PurchasingPower(c.UserContext(), c.Query("series"), salary, start, end)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

func (h *Handler) dates(c *fiber.Ctx) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(c.Query("start"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := h.service.Today()
	if q := c.Query("end"); q != "" {
		if end, err = utils.ParseDate(q); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := ErrorStatus(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error("Inflation request failed", zap.Int("status", status), zap.Error(err))
	} else {
		l.Debug("Inflation request rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// ErrorStatus maps a service error onto an HTTP status.
func ErrorStatus(err error) int {
	var apiErr *bls.APIError
	var transportErr *bls.TransportError
	switch {
	case errors.Is(err, ErrInvalidRange):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNoData):
		return fiber.StatusNotFound
	case errors.As(err, &apiErr), errors.As(err, &transportErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
