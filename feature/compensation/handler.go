package compensation

import (
	"errors"
	"time"

	"salary-tracker/core/logger"
	"salary-tracker/core/reconcile"
	"salary-tracker/core/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// SyncRequest is the body of a sync call. Either Records or Object is set.
type SyncRequest struct {
	Records   []reconcile.ProviderRecord `json:"records"`
	Object    string                     `json:"object"`
	Company   string                     `json:"company"`
	Location  string                     `json:"location"`
	Overwrite bool                       `json:"overwrite"`
	DryRun    bool                       `json:"dry_run"`
}

// Handler handles HTTP requests for compensation sync.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the compensation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/compensation")
	group.Get("/:owner", h.HandleList)
	group.Post("/:owner/sync", h.HandleSync)
	group.Get("/:owner/sync/status", h.HandleStatus)
}

// HandleSync reconciles payroll records for an owner.
// @Summary Sync Compensation Records
// @Description Merges payroll provider records into the owner's compensation history. Existing records are skipped unless overwrite is set.
// @Tags compensation
// @Accept json
// @Produce json
// @Param owner path string true "Owner ID"
// @Param request body SyncRequest true "Records or storage object to import"
// @Success 200 {object} reconcile.Result "Reconciliation Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Import Object Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /compensation/{owner}/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	owner := c.Params("owner")
	l := logger.WithRayID(h.service.logger, c).With(zap.String("owner", owner))

	var req SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	opts := reconcile.Options{
		Overwrite: req.Overwrite || utils.ToBool(c.Query("overwrite")),
		DryRun:    req.DryRun || utils.ToBool(c.Query("dry_run")),
		Company:   req.Company,
		Location:  req.Location,
	}

	var (
		result reconcile.Result
		err    error
	)
	switch {
	case req.Object != "" && len(req.Records) > 0:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "records and object are mutually exclusive"})
	case req.Object != "":
		result, err = h.service.SyncObject(c.UserContext(), owner, req.Object, opts)
	default:
		result, err = h.service.Sync(c.UserContext(), owner, req.Records, opts)
	}
	if err != nil {
		status := syncErrorStatus(err)
		if status >= fiber.StatusInternalServerError {
			l.Error("Compensation sync failed", zap.Error(err))
		} else {
			l.Warn("Compensation sync rejected", zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleStatus reports the import state of an owner.
// @Summary Compensation Sync Status
// @Description Reports how many records were imported for the owner and whether the caller-supplied provider connection is still valid.
// @Tags compensation
// @Produce json
// @Param owner path string true "Owner ID"
// @Param provider query string false "Connected provider name"
// @Param expires_at query string false "Connection expiry (RFC 3339)"
// @Param last_used_at query string false "Connection last use (RFC 3339)"
// @Success 200 {object} reconcile.Status "Sync Status"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /compensation/{owner}/sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	owner := c.Params("owner")
	l := logger.WithRayID(h.service.logger, c)

	conn, err := connectionFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	status, err := h.service.Status(c.UserContext(), owner, conn)
	if err != nil {
		if errors.Is(err, reconcile.ErrMissingOwner) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Sync status failed", zap.String("owner", owner), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(status)
}

// HandleList returns the stored records of an owner.
// @Summary List Compensation Records
// @Description Lists the owner's imported records, newest first. Set all=true to include records from every source.
// @Tags compensation
// @Produce json
// @Param owner path string true "Owner ID"
// @Param all query boolean false "Include every source"
// @Success 200 {array} reconcile.Record "Records"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /compensation/{owner} [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	owner := c.Params("owner")
	records, err := h.service.List(c.UserContext(), owner, utils.ToBool(c.Query("all")))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("List records failed", zap.String("owner", owner), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(records)
}

func connectionFromQuery(c *fiber.Ctx) (*reconcile.Connection, error) {
	provider := c.Query("provider")
	expires := c.Query("expires_at")
	lastUsed := c.Query("last_used_at")
	if provider == "" && expires == "" && lastUsed == "" {
		return nil, nil
	}

	conn := &reconcile.Connection{Provider: provider}
	if expires != "" {
		t, err := time.Parse(time.RFC3339, expires)
		if err != nil {
			return nil, errors.New("expires_at must be RFC 3339")
		}
		conn.ExpiresAt = &t
	}
	if lastUsed != "" {
		t, err := time.Parse(time.RFC3339, lastUsed)
		if err != nil {
			return nil, errors.New("last_used_at must be RFC 3339")
		}
		conn.LastUsedAt = &t
	}
	return conn, nil
}

func syncErrorStatus(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrMissingOwner), errors.Is(err, ErrTooManyRecords):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNoStorage):
		return fiber.StatusServiceUnavailable
	case isNoSuchKey(err):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidImport):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "NoSuchKey"
}
