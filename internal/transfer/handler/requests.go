package handler

import (
	"net/url"
	"strconv"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// parseListRequest reads the listing filters from the query string. Paging
// defaults and caps are applied by the service.
func parseListRequest(q url.Values) (models.ListTransfersRequest, error) {
	var req models.ListTransfersRequest
	var err error

	if raw := q.Get("learner_id"); raw != "" {
		learnerID, err := id.ParseLearnerID(raw)
		if err != nil {
			return req, err
		}
		req.LearnerID = &learnerID
	}
	if req.FromInstitutionID, err = optionalInstitutionID(q, "from_institution_id"); err != nil {
		return req, err
	}
	if req.ToInstitutionID, err = optionalInstitutionID(q, "to_institution_id"); err != nil {
		return req, err
	}
	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return req, err
		}
		req.Status = &status
	}
	if raw := q.Get("priority"); raw != "" {
		priority, err := models.ParsePriority(raw)
		if err != nil {
			return req, err
		}
		req.Priority = &priority
	}
	if req.Page, err = optionalInt(q, "page"); err != nil {
		return req, err
	}
	if req.Limit, err = optionalInt(q, "limit"); err != nil {
		return req, err
	}
	return req, nil
}

func optionalInstitutionID(q url.Values, key string) (*id.InstitutionID, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	instID, err := id.ParseInstitutionID(raw)
	if err != nil {
		return nil, err
	}
	return &instID, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, key+" must be an integer")
	}
	return n, nil
}
