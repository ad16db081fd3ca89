package service

import (
	"context"
	"errors"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

// Delete soft-deletes a transfer in any state. Super-admins only. The
// timeline is kept and stays readable through GetTimeline.
func (s *Service) Delete(ctx context.Context, caller id.Identity, transferID id.TransferID) (err error) {
	ctx, done := s.observe(ctx, "delete", transferAttr(transferID))
	defer func() { done(err) }()

	if err := caller.Validate(); err != nil {
		return err
	}
	if !caller.IsSuperAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only super admins can delete transfers")
	}

	var deleted *models.Transfer
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.load(ctx, transferID)
		if err != nil {
			return err
		}
		if err := s.transfers.SoftDelete(ctx, transferID, requestcontext.Now(ctx)); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "transfer not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete transfer")
		}
		deleted = t
		return nil
	})
	if err != nil {
		return internal(err, "failed to delete transfer")
	}
	s.recordAudit(ctx, caller, audit.EventTransferDeleted, deleted, nil)
	return nil
}
