package compensation

import (
	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the compensation feature. It is disabled when service
// has no store, e.g. when the database is unreachable at startup.
func NewFeature(service *Service) *Feature {
	return &Feature{service: service, handler: NewHandler(service)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "compensation"
}

// IsEnabled reports whether a record store is available.
func (f *Feature) IsEnabled() bool {
	return f.service != nil && f.service.store != nil && f.service.store.db != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
