package record

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/medical"
	"github.com/jwalitptl/clinic-booking/pkg/httputil"
)

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleDoctor)

	r.GET("/appointments/:id/record", staff, h.RecordByAppointment)

	records := r.Group("/records", staff)
	{
		records.GET("/:id", h.GetRecord)
		records.PUT("/:id/examination", h.RecordExamination)
	}
}

func (h *Handler) GetRecord(c *gin.Context) {
	user, err := handler.User(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), user, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) RecordByAppointment(c *gin.Context) {
	user, err := handler.User(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.service.RecordByAppointment(c.Request.Context(), user, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) RecordExamination(c *gin.Context) {
	user, err := handler.User(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.ExaminationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	treatmentIDs, err := handler.ParseIDs(req.TreatmentIDs)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.service.RecordExamination(c.Request.Context(), user, id, model.Examination{
		Diagnosis:    strings.TrimSpace(req.Diagnosis),
		Notes:        strings.TrimSpace(req.Notes),
		TreatmentIDs: treatmentIDs,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}
