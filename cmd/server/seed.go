package main

import (
	"context"
	"log/slog"
	"time"

	instmodels "caseflow/internal/institution/models"
	instservice "caseflow/internal/institution/service"
	learnerservice "caseflow/internal/learner/service"
)

// seedDemoData gives an empty in-memory deployment a school, a tutor centre
// and two learners to transfer between them.
func seedDemoData(ctx context.Context, institutions *instservice.Service, learners *learnerservice.Service, logger *slog.Logger) error {
	school, err := institutions.Create(ctx, "Riverside Primary School", instmodels.InstitutionTypeSchool)
	if err != nil {
		return err
	}
	centre, err := institutions.Create(ctx, "Hillside Tutoring Centre", instmodels.InstitutionTypeTutorCentre)
	if err != nil {
		return err
	}

	enrolled := time.Date(time.Now().Year()-1, time.September, 1, 0, 0, 0, 0, time.UTC)
	for _, name := range [][2]string{{"Ada", "Byron"}, {"Alan", "Turing"}} {
		l, err := learners.Create(ctx, learnerservice.CreateRequest{
			FirstName:      name[0],
			LastName:       name[1],
			InstitutionID:  school.ID,
			EnrollmentDate: enrolled,
		})
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "seeded learner", "learner_id", l.ID.String(), "name", l.FullName())
	}

	logger.InfoContext(ctx, "seeded demo institutions",
		"school_id", school.ID.String(),
		"tutor_centre_id", centre.ID.String(),
	)
	return nil
}
