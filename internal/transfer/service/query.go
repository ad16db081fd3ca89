package service

import (
	"context"
	"errors"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
)

func (s *Service) Get(ctx context.Context, caller id.Identity, transferID id.TransferID) (_ *models.Transfer, err error) {
	ctx, done := s.observe(ctx, "get", transferAttr(transferID))
	defer func() { done(err) }()

	if err := caller.Validate(); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, t, eitherParty); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTimeline returns a transfer's events oldest first. Soft-deleted transfers
// keep their timeline, so the access check loads deleted rows too.
func (s *Service) GetTimeline(ctx context.Context, caller id.Identity, transferID id.TransferID) (_ []*models.TimelineEvent, err error) {
	ctx, done := s.observe(ctx, "get_timeline", transferAttr(transferID))
	defer func() { done(err) }()

	if err := caller.Validate(); err != nil {
		return nil, err
	}
	t, err := s.transfers.FindByIDIncludingDeleted(ctx, transferID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer")
	}
	if err := authorize(caller, t, eitherParty); err != nil {
		return nil, err
	}
	events, err := s.timeline.ListByTransfer(ctx, transferID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load timeline")
	}
	if events == nil {
		events = []*models.TimelineEvent{}
	}
	return events, nil
}

// List pages through transfers visible to caller, newest first. Callers other
// than super-admins only ever see transfers their institution is party to.
func (s *Service) List(ctx context.Context, caller id.Identity, req models.ListTransfersRequest) (_ *models.TransferPage, err error) {
	ctx, done := s.observe(ctx, "list")
	defer func() { done(err) }()

	if err := caller.Validate(); err != nil {
		return nil, err
	}
	req.Normalize()
	filter := models.ListFilter{
		LearnerID:         req.LearnerID,
		FromInstitutionID: req.FromInstitutionID,
		ToInstitutionID:   req.ToInstitutionID,
		Status:            req.Status,
		Priority:          req.Priority,
		Scope:             visibilityScope(caller, nil),
		Offset:            (req.Page - 1) * req.Limit,
		Limit:             req.Limit,
	}
	items, total, err := s.transfers.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transfers")
	}
	if items == nil {
		items = []*models.Transfer{}
	}
	return &models.TransferPage{Data: items, Meta: models.NewPageMeta(total, req.Page, req.Limit)}, nil
}

// GetStatistics counts transfers by status. institutionID narrows the counts
// for super-admins and is ignored for everyone else.
func (s *Service) GetStatistics(ctx context.Context, caller id.Identity, institutionID *id.InstitutionID) (_ *models.Statistics, err error) {
	ctx, done := s.observe(ctx, "statistics")
	defer func() { done(err) }()

	if err := caller.Validate(); err != nil {
		return nil, err
	}
	stats, err := s.transfers.Statistics(ctx, visibilityScope(caller, institutionID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute transfer statistics")
	}
	return &stats, nil
}

func visibilityScope(caller id.Identity, requested *id.InstitutionID) *id.InstitutionID {
	if caller.IsSuperAdmin() {
		return requested
	}
	own := caller.InstitutionID
	return &own
}
