package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"minbar/internal/lifecycle/models"
	"minbar/pkg/domain"
	dErrors "minbar/pkg/domain-errors"
	"minbar/pkg/platform/sentinel"
)

// GetAccountStatus returns the account's current state, counters and history.
func (s *Service) GetAccountStatus(ctx context.Context, adminID domain.AdminID) (*models.AccountStatus, error) {
	var view models.AccountStatus
	err := s.run(ctx, "get_account_status", func(ctx context.Context) error {
		account, err := s.loadAccount(ctx, adminID)
		if err != nil {
			return err
		}
		var inst *models.Institution
		if instID, ok := account.InstitutionID(); ok {
			inst, err = s.store.FindInstitution(ctx, instID)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return err
			}
		}
		view = models.NewAccountStatus(account, inst)
		return nil
	}, attribute.String("admin_id", adminID.String()))
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListByStatus pages through accounts oldest first. An empty status lists every account.
func (s *Service) ListByStatus(ctx context.Context, status models.Status, page domain.Page) (*domain.Paged[*models.AdminAccount], error) {
	page = page.Normalize()
	var result domain.Paged[*models.AdminAccount]
	err := s.run(ctx, "list_accounts", func(ctx context.Context) error {
		if status != "" && !status.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown status "+string(status))
		}
		items, total, err := s.store.ListAccounts(ctx, status, page)
		if err != nil {
			return err
		}
		if items == nil {
			items = []*models.AdminAccount{}
		}
		result = domain.Paged[*models.AdminAccount]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}
		return nil
	}, attribute.String("status", string(status)))
	if err != nil {
		return nil, err
	}
	return &result, nil
}
