package geolocation

import (
	"context"

	"social-explore-client/internal/apperr"
	"social-explore-client/internal/config"
	"social-explore-client/internal/models"
)

// Locator reports the device position
type Locator interface {
	CurrentPosition(ctx context.Context) (models.Coordinate, error)
}

// StaticLocator always reports the same position
type StaticLocator struct {
	Position models.Coordinate
}

func (l StaticLocator) CurrentPosition(ctx context.Context) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, err
	}
	return l.Position, nil
}

// DeniedLocator behaves like a device where location permission was refused
type DeniedLocator struct{}

func (DeniedLocator) CurrentPosition(context.Context) (models.Coordinate, error) {
	return models.Coordinate{}, &apperr.ExternalServiceError{Service: "geolocation", Err: apperr.ErrLocationUnavailable}
}

// FromConfig returns a StaticLocator for a configured device location, or a
// DeniedLocator when none is set
func FromConfig(cfg config.MapConfig) Locator {
	if cfg.DeviceLocation == nil {
		return DeniedLocator{}
	}
	return StaticLocator{Position: models.Coordinate{
		Latitude:  cfg.DeviceLocation.Latitude,
		Longitude: cfg.DeviceLocation.Longitude,
	}}
}
