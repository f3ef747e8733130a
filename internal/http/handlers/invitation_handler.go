// Invitation HTTP handlers.
//
// This file exposes the authenticated invitation endpoints:
//   - GET    /auth/{authToken}/invitations                          (list)
//   - POST   /auth/{authToken}/invitations                          (create)
//   - DELETE /auth/{authToken}/invitations/{invitationId}           (delete)
//   - POST   /auth/{authToken}/invitations/{invitationId}/delete    (delete, for clients without DELETE)
//
// Handlers are transport-thin: they decode input, call the lifecycle service
// with the username resolved by middleware.Authenticate, and translate results
// into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-invitations-backend/internal/domain"
	"github.com/tbourn/go-invitations-backend/internal/http/middleware"
	"github.com/tbourn/go-invitations-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// InvitationService defines the invitation lifecycle consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type InvitationService interface {
	// Create sends an invitation from username.
	Create(ctx context.Context, username string, in services.CreateInput) (*services.CreateResult, error)
	// List returns every live invitation username takes part in.
	List(ctx context.Context, username string) ([]domain.Invitation, error)
	// Delete removes an invitation on behalf of a participant.
	Delete(ctx context.Context, username, id string, reason domain.Reason) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the invitations API.
type Handlers struct {
	invSvc InvitationService
	about  About
}

// New constructs and returns a Handlers instance bound to the given service.
func New(invSvc InvitationService, about About) *Handlers {
	return &Handlers{invSvc: invSvc, about: about}
}

// username returns the authenticated username, or "" when the route is not
// behind middleware.Authenticate.
func username(c *gin.Context) string {
	if u := middleware.UserFrom(c); u != nil {
		return u.Username
	}
	return ""
}

//
// DTOs
//

// CreateInvitationRequest is the JSON payload for sending an invitation.
type CreateInvitationRequest struct {
	// To is the recipient's username.
	To string `json:"to" example:"bob"`
	// GameID identifies the game session the recipient is invited to.
	GameID string `json:"gameId" example:"0123456789abcdef012345"`
	// Type is the invitation category.
	Type string `json:"type" example:"triominos/v1"`
}

// DeleteInvitationRequest is the JSON payload for deleting an invitation.
type DeleteInvitationRequest struct {
	// Reason is one of cancel (sender), accept or refuse (recipient).
	Reason string `json:"reason" form:"reason" enums:"cancel,accept,refuse" example:"refuse"`
}

// TooManyInvitationsResponse is returned with 200 when a recent refusal
// suppressed the invitation. Nothing was stored.
type TooManyInvitationsResponse struct {
	domain.Invitation
	// Code is always TooManyInvitations.
	Code string `json:"code" example:"TooManyInvitations"`
}

//
// Handlers
//

// ListInvitations godoc
// @ID          listInvitations
// @Summary     List invitations
// @Description Returns every invitation the authenticated user sent or received. Expired invitations are omitted.
// @Tags        Invitations
// @Produce     json
//
// @Param       authToken  path  string  true  "Auth token"  example(4f1c2e...)
//
// @Success     200  {array}   domain.Invitation
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/{authToken}/invitations [get]
func (h *Handlers) ListInvitations(c *gin.Context) {
	items, err := h.invSvc.List(c.Request.Context(), username(c))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Invitation{}
	}
	ok(c, http.StatusOK, items)
}

// CreateInvitation godoc
// @ID          createInvitation
// @Summary     Send an invitation
// @Description Invites another player to a game. Sending the same (type, from, to) again replaces the earlier invitation.
// @Description While a recent refusal is cooling down the response is 200 with code TooManyInvitations and nothing is stored.
// @Tags        Invitations
// @Accept      json
// @Produce     json
//
// @Param       authToken  path  string                            true  "Auth token"  example(4f1c2e...)
// @Param       body       body  handlers.CreateInvitationRequest  true  "Invitation"
//
// @Success     200  {object}  domain.Invitation
// @Success     200  {object}  handlers.TooManyInvitationsResponse  "Cool-down active"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid content"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     423  {object}  handlers.ErrorResponse  "Recipient blocked the sender"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/{authToken}/invitations [post]
func (h *Handlers) CreateInvitation(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidContent, "invalid content")
		return
	}

	res, err := h.invSvc.Create(c.Request.Context(), username(c), services.CreateInput{
		To:     req.To,
		GameID: req.GameID,
		Type:   req.Type,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if res.TooMany {
		ok(c, http.StatusOK, TooManyInvitationsResponse{Invitation: res.Invitation, Code: CodeTooManyInvitations})
		return
	}
	ok(c, http.StatusOK, res.Invitation)
}

// DeleteInvitation godoc
// @ID          deleteInvitation
// @Summary     Delete an invitation
// @Description The sender may cancel; the recipient may accept or refuse. A refusal blocks the same invitation for a while.
// @Tags        Invitations
// @Accept      json,x-www-form-urlencoded
// @Produce     json
//
// @Param       authToken     path  string                            true  "Auth token"     example(4f1c2e...)
// @Param       invitationId  path  string                            true  "Invitation ID"  example(6a9e4c3b0d1f2e8a7b5c4d3e2f1a0b9c)
// @Param       body          body  handlers.DeleteInvitationRequest  true  "Reason"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or invalid reason"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Invitation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/{authToken}/invitations/{invitationId} [delete]
// @Router      /auth/{authToken}/invitations/{invitationId}/delete [post]
func (h *Handlers) DeleteInvitation(c *gin.Context) {
	var req DeleteInvitationRequest
	// An empty body is a missing reason, which the service reports once it
	// has resolved the invitation.
	if err := c.ShouldBindWith(&req, reasonBinding(c)); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidContent, "invalid content")
		return
	}

	err := h.invSvc.Delete(c.Request.Context(), username(c), c.Param("invitationId"), domain.Reason(req.Reason))
	if err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// reasonBinding decodes form posts as forms and everything else as JSON, so
// a JSON body sent without a Content-Type still binds.
func reasonBinding(c *gin.Context) binding.Binding {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return binding.Form
	default:
		return binding.JSON
	}
}
