package appointment

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/slots", h.DaySlots)
	r.GET("/availability", h.Availability)

	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id/status", middleware.RequireRole(model.RoleAdmin, model.RoleDoctor), h.UpdateStatus)
		appointments.POST("/:id/reminder", middleware.RequireRole(model.RoleAdmin), h.SendReminder)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	user, err := handler.User(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	in, err := newAppointment(req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.service.CreateAppointment(c.Request.Context(), user, in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appointment)
}

func newAppointment(req model.CreateAppointmentRequest) (model.NewAppointment, error) {
	var in model.NewAppointment
	var err error

	if req.PatientID != "" {
		if in.PatientID, err = uuid.Parse(req.PatientID); err != nil {
			return in, apperrors.BadRequest("invalid patient_id", err)
		}
	}
	if in.DoctorID, err = uuid.Parse(req.DoctorID); err != nil {
		return in, apperrors.BadRequest("invalid doctor_id", err)
	}
	if in.Date, err = model.ParseDate(req.Date); err != nil {
		return in, apperrors.BadRequest("invalid date", err)
	}
	if in.Time, err = model.ParseClock(req.Time); err != nil {
		return in, apperrors.BadRequest("invalid time", err)
	}
	if in.TreatmentIDs, err = handler.ParseIDs(req.TreatmentIDs); err != nil {
		return in, err
	}
	if req.Status != "" {
		if in.Status, err = model.ParseAppointmentStatus(req.Status); err != nil {
			return in, apperrors.BadRequest("invalid status", err)
		}
	}
	in.Complaint = strings.TrimSpace(req.Complaint)
	return in, nil
}

func (h *Handler) GetAppointment(c *gin.Context) {
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

	appointment, err := h.service.GetAppointment(c.Request.Context(), user, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

// ListAppointments serves the role-scoped queue. Optional filters: date, status (repeatable,
// value or label), doctor_id and patient_id for admins.
func (h *Handler) ListAppointments(c *gin.Context) {
	user, err := handler.User(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var filters model.AppointmentFilters
	if raw := c.Query("date"); raw != "" {
		d, err := handler.QueryDate(c, "date")
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		filters.Date = &d
	}
	for _, raw := range c.QueryArray("status") {
		status, err := model.ParseAppointmentStatus(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid status", err))
			return
		}
		filters.Statuses = append(filters.Statuses, status)
	}
	if c.Query("doctor_id") != "" {
		if filters.DoctorID, err = handler.QueryID(c, "doctor_id"); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}
	if c.Query("patient_id") != "" {
		if filters.PatientID, err = handler.QueryID(c, "patient_id"); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}

	appointments, err := h.service.ListQueue(c.Request.Context(), user, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
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

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	status, err := model.ParseAppointmentStatus(req.Status)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid status", err))
		return
	}

	appointment, err := h.service.UpdateStatus(c.Request.Context(), user, id, status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) SendReminder(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.SendReminder(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) DaySlots(c *gin.Context) {
	doctorID, err := handler.QueryID(c, "doctor_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	date, err := handler.QueryDate(c, "date")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	slots, err := h.service.DaySlots(c.Request.Context(), doctorID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) Availability(c *gin.Context) {
	doctorID, err := handler.QueryID(c, "doctor_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	date, err := handler.QueryDate(c, "date")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	t, err := model.ParseClock(c.Query("time"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("time must be formatted HH:MM", err))
		return
	}

	taken, err := h.service.IsSlotTaken(c.Request.Context(), doctorID, date, t)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"doctor_id": doctorID,
		"date":      date,
		"time":      t,
		"taken":     taken,
	})
}
