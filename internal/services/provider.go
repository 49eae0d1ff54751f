package services

import "social-explore-client/internal/apiclient"

// ClientProvider returns the client for the current credential. Services
// ask for it on every call, so a login or logout takes effect on the next
// request without rebuilding any service.
type ClientProvider interface {
	Client() *apiclient.Client
}

// messageResponse is the {"message": "..."} body returned by mutating endpoints
type messageResponse struct {
	Message string `json:"message"`
}
