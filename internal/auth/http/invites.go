package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/domain"
	"github.com/nikhilsi/trading-recommendations-app/internal/auth/service"
	"github.com/nikhilsi/trading-recommendations-app/pkg/authsdk"
	"github.com/nikhilsi/trading-recommendations-app/pkg/httpx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
)

// InviteHandler serves the admin invite endpoints. Admin access is enforced
// by the router.
type InviteHandler struct {
	Invites *service.InviteLedger
	Now     func() time.Time
}

func (h *InviteHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// HandleCreate godoc
//
//	@Summary		Create an invite
//	@Description	Mints a single-use invite code. When an email is given the invite is pinned to that address and an invitation email is sent.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.InviteRequest	true	"Invite request"
//	@Success		200		{object}	authsdk.InviteResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"Admin access required"
//	@Failure		422		{object}	authsdk.ErrorResponse	"expires_in_days outside 1-30, bad email or notes"
//	@Security		BearerAuth
//	@Router			/auth/invites [post].
func (h *InviteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(r)
	if !ok {
		writeServiceError(w, r, service.ErrUnauthenticated)
		return
	}

	var req authsdk.InviteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var ttlDays int
	if req.ExpiresInDays != nil {
		// An explicit value must be in range; only absence means default.
		if err := service.ValidateInviteTTLDays(*req.ExpiresInDays); err != nil {
			httpx.WriteValidationError(w, map[string]string{"expires_in_days": err.Error()})
			return
		}
		ttlDays = *req.ExpiresInDays
	}

	inv, err := h.Invites.Create(r.Context(), service.CreateInviteParams{
		CreatedBy: admin.ID,
		InvitedBy: admin.Email,
		Email:     req.Email,
		Notes:     req.Notes,
		TTLDays:   ttlDays,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toInviteResponse(inv, h.now()))
}

// HandleList godoc
//
//	@Summary		List invites
//	@Description	Lists invites newest first. Only active invites are returned unless include_used or include_expired is set. Counts cover the returned invites.
//	@Tags			Invitations
//	@Produce		json
//	@Param			include_used	query		bool	false	"Include used invites"
//	@Param			include_expired	query		bool	false	"Include expired invites"
//	@Success		200				{object}	authsdk.InviteListResponse
//	@Failure		401				{object}	authsdk.ErrorResponse
//	@Failure		403				{object}	authsdk.ErrorResponse	"Admin access required"
//	@Failure		422				{object}	authsdk.ErrorResponse	"Malformed query parameter"
//	@Security		BearerAuth
//	@Router			/auth/invites [get].
func (h *InviteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	details := map[string]string{}

	filter := domain.InviteFilter{
		IncludeUsed:    queryBool(q.Get("include_used"), "include_used", details),
		IncludeExpired: queryBool(q.Get("include_expired"), "include_expired", details),
	}
	if len(details) > 0 {
		httpx.WriteValidationError(w, details)
		return
	}

	list, err := h.Invites.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toInviteListResponse(list, h.now()))
}

// HandleRevoke godoc
//
//	@Summary		Revoke an invite
//	@Description	Deletes an unused invite. Used invites are kept as the record of who invited whom.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string					true	"Invite ID"
//	@Success		200	{object}	authsdk.MessageResponse	"Invite revoked successfully"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Cannot revoke used invite"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Admin access required"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Invite not found"
//	@Security		BearerAuth
//	@Router			/auth/invites/{id} [delete].
func (h *InviteHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "Invite not found")
		return
	}

	err = h.Invites.Revoke(r.Context(), id.String())
	if err != nil {
		writeServiceError(w, r, err,
			errorMapping{service.ErrNotFound, http.StatusNotFound, "Invite not found"},
			errorMapping{service.ErrInviteUsed, http.StatusBadRequest, "Cannot revoke used invite"},
		)
		return
	}

	httpx.WriteMessage(w, "Invite revoked successfully")
}

// queryBool parses an optional boolean query parameter, recording a
// validation failure in details.
func queryBool(raw, name string, details map[string]string) bool {
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		details[name] = "must be a boolean"
		return false
	}
	return v
}
