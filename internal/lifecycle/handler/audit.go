package handler

import (
	"fmt"
	"net/http"

	"minbar/pkg/requestcontext"
)

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q, err := parseAuditQuery(r.URL.Query().Get)
	if err != nil {
		h.fail(w, r, "list_audit_log", err)
		return
	}
	page, err := h.svc.ListAuditLog(r.Context(), q.filter, q.page)
	if err != nil {
		h.fail(w, r, "list_audit_log", err)
		return
	}
	respond(w, r, http.StatusOK, page)
}

// handleExportAudit streams CSV. Errors after the first byte can only be logged.
func (h *Handler) handleExportAudit(w http.ResponseWriter, r *http.Request) {
	q, err := parseAuditQuery(r.URL.Query().Get)
	if err != nil {
		h.fail(w, r, "export_audit_log", err)
		return
	}
	name := fmt.Sprintf("audit-log-%s.csv", requestcontext.Now(r.Context()).UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	cw := &countingWriter{w: w}
	if err := h.svc.ExportAuditLog(r.Context(), q.filter, cw); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			h.fail(w, r, "export_audit_log", err)
			return
		}
		h.logger.ErrorContext(r.Context(), "audit export aborted mid-stream",
			"bytes_written", cw.n,
			"error", err,
		)
	}
}

func (h *Handler) handlePurgeAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req PurgeAuditRequest
	if !h.decode(w, r, &req) {
		return
	}
	n, err := h.svc.PurgeAuditLog(r.Context(), actor, req.OlderThanDays, req.Reason)
	if err != nil {
		h.fail(w, r, "purge_audit_log", err)
		return
	}
	respond(w, r, http.StatusOK, DeletedCountResponse{Deleted: n})
}

func (h *Handler) handleBulkDeleteAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req BulkDeleteAuditRequest
	if !h.decode(w, r, &req) {
		return
	}
	n, err := h.svc.BulkDeleteAuditLog(r.Context(), actor, req.IDs, req.Reason)
	if err != nil {
		h.fail(w, r, "bulk_delete_audit_log", err)
		return
	}
	respond(w, r, http.StatusOK, DeletedCountResponse{Deleted: n})
}

type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
