package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"minbar/pkg/domain"
	"minbar/pkg/requestcontext"
)

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequireRole(logger, domain.RoleSuperAdmin, domain.RoleSystem)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		actor  *domain.Actor
		status int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"applicant", &domain.Actor{ID: "a-1", Role: domain.RoleApplicant}, http.StatusForbidden},
		{"super admin", &domain.Actor{ID: "sa-1", Role: domain.RoleSuperAdmin}, http.StatusNoContent},
		{"system", &domain.Actor{ID: "cron", Role: domain.RoleSystem}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.actor != nil {
				req = req.WithContext(requestcontext.WithActor(req.Context(), *tt.actor))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
