// Package handlers provides HTTP handler implementations for the public API.
// This file defines the Handlers aggregate that the router wires routes to.
package handlers

import (
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/services"
)

// Handlers bundles the application services the HTTP layer delegates to.
type Handlers struct {
	msgSvc  *services.MessageService
	authSvc *services.AuthService
}

// New constructs the handler set from the injected services.
func New(msgSvc *services.MessageService, authSvc *services.AuthService) *Handlers {
	return &Handlers{msgSvc: msgSvc, authSvc: authSvc}
}
