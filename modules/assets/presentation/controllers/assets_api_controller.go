package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/trackforge/assetflow/modules/assets/domain/assignment"
	"github.com/trackforge/assetflow/modules/assets/presentation/mappers"
	"github.com/trackforge/assetflow/modules/assets/presentation/viewmodels"
	"github.com/trackforge/assetflow/modules/assets/services"
	"github.com/trackforge/assetflow/pkg/application"
	"github.com/trackforge/assetflow/pkg/composables"
	"github.com/trackforge/assetflow/pkg/constants"
	"github.com/trackforge/assetflow/pkg/middleware"
)

type AssetsAPIController struct {
	app       application.Application
	lifecycle *services.AssetLifecycleService
	approvals *services.ApprovalQueryService
	apiPrefix string
}

func NewAssetsAPIController(app application.Application) application.Controller {
	return &AssetsAPIController{
		app:       app,
		lifecycle: app.Service(services.AssetLifecycleService{}).(*services.AssetLifecycleService),
		approvals: app.Service(services.ApprovalQueryService{}).(*services.ApprovalQueryService),
		apiPrefix: "/assets/api",
	}
}

func (c *AssetsAPIController) Key() string {
	return c.apiPrefix
}

func (c *AssetsAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.Use(middleware.RequireTenantFromHeaders())

	api.HandleFunc("/assets/{id}:request-transfer", c.RequestTransfer).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}:request-disposal", c.RequestDisposal).Methods(http.MethodPost)
	api.HandleFunc("/assets/{id}/history", c.History).Methods(http.MethodGet)

	api.HandleFunc("/approvals/pending", c.ListPending).Methods(http.MethodGet)
	api.HandleFunc("/approvals/{id}:approve", c.Approve).Methods(http.MethodPost)
	api.HandleFunc("/approvals/{id}:reject", c.Reject).Methods(http.MethodPost)
}

type targetRequest struct {
	Kind   string     `json:"kind" validate:"required,oneof=user site"`
	UserID *uuid.UUID `json:"user_id" validate:"required_if=Kind user,excluded_if=Kind site"`
	SiteID *uuid.UUID `json:"site_id" validate:"required_if=Kind site,excluded_if=Kind user"`
	AreaID *uuid.UUID `json:"area_id" validate:"required_if=Kind site,excluded_if=Kind user"`
}

func (t targetRequest) toDomain() (assignment.Target, bool) {
	switch t.Kind {
	case string(assignment.TargetUser):
		if t.UserID == nil {
			return assignment.Target{}, false
		}
		return assignment.UserTarget(*t.UserID), true
	case string(assignment.TargetSite):
		if t.SiteID == nil || t.AreaID == nil {
			return assignment.Target{}, false
		}
		return assignment.SiteTarget(*t.SiteID, *t.AreaID), true
	default:
		return assignment.Target{}, false
	}
}

type requestTransferRequest struct {
	Target  targetRequest `json:"target" validate:"required"`
	Note    *string       `json:"note" validate:"omitempty,max=2000"`
	DueDate *string       `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (c *AssetsAPIController) RequestTransfer(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID, requestID, ok := requireTenantActor(w, r)
	if !ok {
		return
	}
	assetID, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	var body requestTransferRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid request body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, err.Error())
		return
	}
	target, ok2 := body.Target.toDomain()
	if !ok2 {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid transfer target")
		return
	}
	dueDate, err := parseDueDate(body.DueDate)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "due_date is invalid")
		return
	}

	created, err := c.lifecycle.RequestTransfer(r.Context(), tenantID, actorID, assetID, services.TransferRequest{
		Target:  target,
		Note:    body.Note,
		DueDate: dueDate,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.AssignmentToViewModel(created))
}

type requestDisposalRequest struct {
	Method      string  `json:"method" validate:"required,max=100"`
	DocumentRef *string `json:"document_ref" validate:"omitempty,max=500"`
	Note        *string `json:"note" validate:"omitempty,max=2000"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (c *AssetsAPIController) RequestDisposal(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID, requestID, ok := requireTenantActor(w, r)
	if !ok {
		return
	}
	assetID, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	var body requestDisposalRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid request body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, err.Error())
		return
	}
	dueDate, err := parseDueDate(body.DueDate)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "due_date is invalid")
		return
	}

	created, err := c.lifecycle.RequestDisposal(r.Context(), tenantID, actorID, assetID, services.DisposalRequest{
		Method:      body.Method,
		DocumentRef: body.DocumentRef,
		Note:        body.Note,
		DueDate:     dueDate,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.AssignmentToViewModel(created))
}

type resolveRequest struct {
	ExpectedVersion int64   `json:"expected_version" validate:"required,min=1"`
	Note            *string `json:"note" validate:"omitempty,max=2000"`
}

func (c *AssetsAPIController) Approve(w http.ResponseWriter, r *http.Request) {
	c.resolve(w, r, c.lifecycle.Approve)
}

func (c *AssetsAPIController) Reject(w http.ResponseWriter, r *http.Request) {
	c.resolve(w, r, c.lifecycle.Reject)
}

func (c *AssetsAPIController) resolve(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, tenantID, actorID, assignmentID uuid.UUID, cmd services.ResolveCommand) (*services.Resolution, error),
) {
	tenantID, actorID, requestID, ok := requireTenantActor(w, r)
	if !ok {
		return
	}
	assignmentID, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	var body resolveRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "invalid request body")
		return
	}
	if err := constants.Validate.Struct(body); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, err.Error())
		return
	}

	out, err := apply(r.Context(), tenantID, actorID, assignmentID, services.ResolveCommand{
		ExpectedVersion: body.ExpectedVersion,
		Note:            body.Note,
	})
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.ResolutionToViewModel(out))
}

func (c *AssetsAPIController) ListPending(w http.ResponseWriter, r *http.Request) {
	tenantID, _, requestID, ok := requireTenantActor(w, r)
	if !ok {
		return
	}

	q := services.PendingQuery{}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind := assignment.Kind(raw)
		q.Kind = &kind
	}
	q.Limit = queryInt(r, "limit")
	q.Offset = queryInt(r, "offset")

	items, total, err := c.approvals.ListPending(r.Context(), tenantID, q)
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}

	views := make([]viewmodels.PendingApprovalView, 0, len(items))
	for _, item := range items {
		views = append(views, mappers.PendingApprovalToViewModel(item))
	}

	type pendingResponse struct {
		Items []viewmodels.PendingApprovalView `json:"items"`
		Total int64                            `json:"total"`
	}
	writeJSON(w, http.StatusOK, pendingResponse{Items: views, Total: total})
}

func (c *AssetsAPIController) History(w http.ResponseWriter, r *http.Request) {
	tenantID, _, requestID, ok := requireTenantActor(w, r)
	if !ok {
		return
	}
	assetID, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	entries, err := c.lifecycle.History(r.Context(), tenantID, assetID, queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, requestID, err)
		return
	}

	views := make([]viewmodels.HistoryEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, mappers.HistoryEntryToViewModel(e))
	}

	type historyResponse struct {
		Items []viewmodels.HistoryEntryView `json:"items"`
	}
	writeJSON(w, http.StatusOK, historyResponse{Items: views})
}

func requireTenantActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, string, bool) {
	requestID := ensureRequestID(r)
	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeNoTenant, "tenant is required")
		return uuid.Nil, uuid.Nil, requestID, false
	}
	actorID, err := composables.UseActorID(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, services.CodeNoTenant, "actor is required")
		return uuid.Nil, uuid.Nil, requestID, false
	}
	return tenantID, actorID, requestID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, services.CodeInvalidBody, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
