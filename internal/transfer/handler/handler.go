package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/transfer/models"
	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// Service is the transfer workflow as seen by the HTTP layer.
type Service interface {
	Create(ctx context.Context, caller id.Identity, req models.CreateTransferRequest) (*models.Transfer, error)
	Get(ctx context.Context, caller id.Identity, transferID id.TransferID) (*models.Transfer, error)
	GetTimeline(ctx context.Context, caller id.Identity, transferID id.TransferID) ([]*models.TimelineEvent, error)
	List(ctx context.Context, caller id.Identity, req models.ListTransfersRequest) (*models.TransferPage, error)
	GetStatistics(ctx context.Context, caller id.Identity, institutionID *id.InstitutionID) (*models.Statistics, error)
	Update(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.UpdateTransferRequest) (*models.Transfer, error)
	Review(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ReviewTransferRequest) (*models.Transfer, error)
	Acknowledge(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.AcknowledgeTransferRequest) (*models.Transfer, error)
	Complete(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.CompleteTransferRequest) (*models.Transfer, error)
	Cancel(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.CancelTransferRequest) (*models.Transfer, error)
	AddCommunication(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.AddCommunicationRequest) (*models.Transfer, error)
	Delete(ctx context.Context, caller id.Identity, transferID id.TransferID) error
	ShareDocuments(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ShareDocumentsRequest) (*models.Transfer, error)
	ShareCaseNotes(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ShareCaseNotesRequest) (*models.Transfer, error)
	ScheduleMeeting(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.ScheduleMeetingRequest) (*models.Transfer, error)
	CompleteMeeting(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.CompleteMeetingRequest) (*models.Transfer, error)
	AddComment(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.AddCommentRequest) (*models.Transfer, error)
	UpdateFollowUp(ctx context.Context, caller id.Identity, transferID id.TransferID, req models.UpdateFollowUpRequest) (*models.Transfer, error)
}

// Handler wires the transfer endpoints to the transfer service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the transfer endpoints. Callers must already be
// authenticated; RequireAuth puts the identity in the request context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/statistics", h.HandleStatistics)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Get("/timeline", h.HandleTimeline)

			r.Patch("/", mutation(h, "update", http.StatusOK, h.service.Update))
			r.Patch("/review", mutation(h, "review", http.StatusOK, h.service.Review))
			r.Patch("/acknowledge", mutation(h, "acknowledge", http.StatusOK, h.service.Acknowledge))
			r.Patch("/complete", mutation(h, "complete", http.StatusOK, h.service.Complete))
			r.Patch("/cancel", mutation(h, "cancel", http.StatusOK, h.service.Cancel))
			r.Post("/communications", mutation(h, "add_communication", http.StatusCreated, h.service.AddCommunication))

			r.Post("/documents", mutation(h, "share_documents", http.StatusCreated, h.service.ShareDocuments))
			r.Post("/case-notes", mutation(h, "share_case_notes", http.StatusCreated, h.service.ShareCaseNotes))
			r.Put("/meeting", mutation(h, "schedule_meeting", http.StatusOK, h.service.ScheduleMeeting))
			r.Patch("/meeting/complete", mutation(h, "complete_meeting", http.StatusOK, h.service.CompleteMeeting))
			r.Post("/comments", mutation(h, "add_comment", http.StatusCreated, h.service.AddComment))
			r.Patch("/follow-up", mutation(h, "update_follow_up", http.StatusOK, h.service.UpdateFollowUp))
		})
	})
}

// HandleCreate handles POST /transfers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.CreateTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	t, err := h.service.Create(ctx, caller, *req)
	if err != nil {
		h.writeServiceError(ctx, w, "create", err)
		return
	}

	h.logger.InfoContext(ctx, "transfer created",
		"request_id", requestID,
		"transfer_id", t.ID.String(),
		"transfer_number", t.TransferNumber,
	)
	httputil.WriteJSON(w, http.StatusCreated, t)
}

// HandleList handles GET /transfers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	req, err := parseListRequest(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, caller, req)
	if err != nil {
		h.writeServiceError(ctx, w, "list", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// HandleStatistics handles GET /transfers/statistics.
func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	institutionID, err := optionalInstitutionID(r.URL.Query(), "institution_id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := h.service.GetStatistics(ctx, caller, institutionID)
	if err != nil {
		h.writeServiceError(ctx, w, "statistics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleGet handles GET /transfers/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, transferID, ok := h.callerAndTransfer(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(ctx, caller, transferID)
	if err != nil {
		h.writeServiceError(ctx, w, "get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

// HandleTimeline handles GET /transfers/{id}/timeline.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, transferID, ok := h.callerAndTransfer(w, r)
	if !ok {
		return
	}
	events, err := h.service.GetTimeline(ctx, caller, transferID)
	if err != nil {
		h.writeServiceError(ctx, w, "get_timeline", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newTimelineResponse(transferID, events))
}

// HandleDelete handles DELETE /transfers/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, transferID, ok := h.callerAndTransfer(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, caller, transferID); err != nil {
		h.writeServiceError(ctx, w, "delete", err)
		return
	}
	h.logger.InfoContext(ctx, "transfer deleted",
		"request_id", requestcontext.RequestID(ctx),
		"transfer_id", transferID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

// mutation builds the handler for an operation on one transfer that takes a
// JSON body and returns the updated transfer.
func mutation[T any](h *Handler, op string, status int, call func(context.Context, id.Identity, id.TransferID, T) (*models.Transfer, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		caller, transferID, ok := h.callerAndTransfer(w, r)
		if !ok {
			return
		}
		req, ok := httputil.DecodeAndPrepare[T](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		t, err := call(ctx, caller, transferID, *req)
		if err != nil {
			h.writeServiceError(ctx, w, op, err)
			return
		}
		h.logger.InfoContext(ctx, "transfer "+op,
			"request_id", requestID,
			"transfer_id", transferID.String(),
			"status", string(t.Status),
		)
		httputil.WriteJSON(w, status, t)
	}
}

func (h *Handler) requireCaller(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	caller, ok := requestcontext.Identity(r.Context())
	if !ok {
		// RequireAuth is missing from the chain.
		h.logger.ErrorContext(r.Context(), "caller identity missing from context",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.Identity{}, false
	}
	return caller, true
}

func (h *Handler) callerAndTransfer(w http.ResponseWriter, r *http.Request) (id.Identity, id.TransferID, bool) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return id.Identity{}, id.TransferID{}, false
	}
	transferID, err := id.ParseTransferID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.Identity{}, id.TransferID{}, false
	}
	return caller, transferID, true
}

// writeServiceError logs at a level matching the failure and writes it.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"operation", op,
		"error", err,
	}
	if httputil.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "transfer operation failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, "transfer operation rejected", attrs...)
	}
	httputil.WriteError(w, err)
}
