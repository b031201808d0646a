package handler

import (
	"net/http"
)

func (h *Handler) handleCreateInstitution(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req CreateInstitutionRequest
	if !h.decode(w, r, &req) {
		return
	}
	inst, err := h.svc.CreateInstitution(r.Context(), actor, req.Name, req.Location)
	if err != nil {
		h.fail(w, r, "create_institution", err)
		return
	}
	respond(w, r, http.StatusCreated, toInstitutionResponse(inst, true))
}

func (h *Handler) handleGetInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := institutionIDParam(r)
	if err != nil {
		h.fail(w, r, "get_institution", err)
		return
	}
	inst, err := h.svc.GetInstitution(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get_institution", err)
		return
	}
	respond(w, r, http.StatusOK, toInstitutionResponse(inst, false))
}

func (h *Handler) handleDeleteInstitution(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := institutionIDParam(r)
	if err != nil {
		h.fail(w, r, "delete_institution", err)
		return
	}
	var req ReasonRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.DeleteInstitution(r.Context(), id, actor, req.Reason); err != nil {
		h.fail(w, r, "delete_institution", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegenerateCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	id, err := institutionIDParam(r)
	if err != nil {
		h.fail(w, r, "regenerate_code", err)
		return
	}
	var req ReasonRequest
	if !h.decode(w, r, &req) {
		return
	}
	inst, err := h.svc.RegenerateCode(r.Context(), id, actor, req.Reason)
	if err != nil {
		h.fail(w, r, "regenerate_code", err)
		return
	}
	respond(w, r, http.StatusOK, toInstitutionResponse(inst, true))
}
