package handler

import (
	"net/http"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	"minbar/pkg/requestcontext"
)

// handleApply accepts anonymous applicants. A signed-in caller applies under
// its own identity.
func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !h.decode(w, r, &req) {
		return
	}
	instID, err := domain.ParseInstitutionID(req.InstitutionID)
	if err != nil {
		h.fail(w, r, "apply", err)
		return
	}
	actor, _ := requestcontext.Actor(r.Context())
	account, err := h.svc.ApplyForInstitution(r.Context(), actor, req.ApplicantInfo, instID)
	if err != nil {
		h.fail(w, r, "apply", err)
		return
	}

	resp := ApplyResponse{Account: models.NewAccountStatus(account, nil)}
	if h.tokens != nil {
		token, err := h.issueApplicantToken(account)
		if err != nil {
			// The application is already committed; the applicant can sign in later.
			h.logger.ErrorContext(r.Context(), "failed to issue applicant token",
				"admin_id", account.ID.String(),
				"error", err,
			)
		} else {
			resp.AccessToken = token
			resp.ExpiresIn = int(h.tokenTTL.Seconds())
		}
	}
	respond(w, r, http.StatusCreated, resp)
}

// handleSignIn gives an applicant a fresh token once they prove their email
// and an institution code. Earlier tokens stay revoked.
func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decode(w, r, &req) {
		return
	}
	instID, err := domain.ParseInstitutionID(req.InstitutionID)
	if err != nil {
		h.fail(w, r, "sign_in", err)
		return
	}
	account, err := h.svc.SignIn(r.Context(), req.Email, instID, req.VerificationCode)
	if err != nil {
		h.fail(w, r, "sign_in", err)
		return
	}
	token, err := h.issueApplicantToken(account)
	if err != nil {
		h.fail(w, r, "sign_in", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}
	respond(w, r, http.StatusOK, ApplyResponse{
		Account:     models.NewAccountStatus(account, nil),
		AccessToken: token,
		ExpiresIn:   int(h.tokenTTL.Seconds()),
	})
}

func (h *Handler) issueApplicantToken(account *models.AdminAccount) (string, error) {
	return h.tokens.GenerateAccessToken(domain.Actor{
		ID:   account.ID.String(),
		Role: domain.RoleApplicant,
		Name: account.Name,
	}, h.tokenTTL)
}

// handleGetAccountStatus serves super admins and the applicant who owns the account.
func (h *Handler) handleGetAccountStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	adminID, err := adminIDParam(r)
	if err != nil {
		h.fail(w, r, "get_account_status", err)
		return
	}
	if !actor.IsSuperAdmin() && !actor.IsApplicant(adminID) {
		h.fail(w, r, "get_account_status", dErrors.New(dErrors.CodeForbidden, "not allowed to view this account"))
		return
	}
	status, err := h.svc.GetAccountStatus(r.Context(), adminID)
	if err != nil {
		h.fail(w, r, "get_account_status", err)
		return
	}
	respond(w, r, http.StatusOK, status)
}

func (h *Handler) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parsePage(q.Get)
	if err != nil {
		h.fail(w, r, "list_admins", err)
		return
	}
	result, err := h.svc.ListByStatus(r.Context(), models.Status(q.Get("status")), page)
	if err != nil {
		h.fail(w, r, "list_admins", err)
		return
	}
	resp := AccountListResponse{
		Items:  make([]models.AccountStatus, 0, len(result.Items)),
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	}
	for _, a := range result.Items {
		resp.Items = append(resp.Items, models.NewAccountStatus(a, nil))
	}
	respond(w, r, http.StatusOK, resp)
}

// transition decodes the optional body, resolves the path id and runs op.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, body any,
	op func(adminID domain.AdminID, actor domain.Actor) (*models.AdminAccount, error),
) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	adminID, err := adminIDParam(r)
	if err != nil {
		h.fail(w, r, name, err)
		return
	}
	if body != nil && !h.decode(w, r, body) {
		return
	}
	account, err := op(adminID, actor)
	if err != nil {
		h.fail(w, r, name, err)
		return
	}
	respond(w, r, http.StatusOK, models.NewAccountStatus(account, nil))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve", nil, func(id domain.AdminID, actor domain.Actor) (*models.AdminAccount, error) {
		return h.svc.Approve(r.Context(), id, actor)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	h.transition(w, r, "reject", &req, func(id domain.AdminID, actor domain.Actor) (*models.AdminAccount, error) {
		return h.svc.Reject(r.Context(), id, actor, req.Reason)
	})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	h.transition(w, r, "remove", &req, func(id domain.AdminID, actor domain.Actor) (*models.AdminAccount, error) {
		return h.svc.RemoveAdmin(r.Context(), id, actor, req.Reason)
	})
}

func (h *Handler) handleGrantReapply(w http.ResponseWriter, r *http.Request) {
	var req NotesRequest
	h.transition(w, r, "grant_reapply", &req, func(id domain.AdminID, actor domain.Actor) (*models.AdminAccount, error) {
		return h.svc.GrantReapply(r.Context(), id, actor, req.Notes)
	})
}

func (h *Handler) handleReapply(w http.ResponseWriter, r *http.Request) {
	var req ReapplyRequest
	h.transition(w, r, "reapply", &req, func(id domain.AdminID, actor domain.Actor) (*models.AdminAccount, error) {
		instID, err := domain.ParseInstitutionID(req.InstitutionID)
		if err != nil {
			return nil, err
		}
		return h.svc.Reapply(r.Context(), id, actor, instID, req.VerificationCode, req.Notes)
	})
}
