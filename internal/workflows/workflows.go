// Package workflows holds the modal flows of the client: creating an
// activity, viewing one, editing the profile, managing friends, the
// statistics dashboard and registration. Each flow keeps its own form state
// and talks to the backend through the narrow interfaces declared here.
package workflows

import (
	"social-explore-client/internal/bridge"
	"social-explore-client/internal/models"
)

// Bridge owners for the two flows that pick a location on the map
const (
	ActivityFormOwner = "activity-form"
	ProfileOwner      = "profile"
)

// LocationBridge is the slot a picking flow registers its receiver in
type LocationBridge interface {
	Register(owner string, receiver bridge.Receiver)
	Unregister(owner string)
}

func cloneCoordinate(c *models.Coordinate) *models.Coordinate {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
