package http

import (
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/platform/httpkit"
)

// Actor attributes a mutation to the authenticated requester.
func Actor(id httpkit.Identity) domain.Actor {
	return domain.UserActor(id.UserID(), id.Username())
}
