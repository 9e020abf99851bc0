package billing

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/billing"
	"github.com/jwalitptl/clinic-booking/pkg/httputil"
)

type Handler struct {
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	routes := r.Group("/billing", middleware.RequireRole(model.RoleAdmin))
	{
		routes.GET("/pending", h.PendingPayments)
		routes.POST("/records/:id/transaction", h.FinalizeTransaction)
	}
}

func (h *Handler) PendingPayments(c *gin.Context) {
	pending, err := h.service.PendingPayments(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if pending == nil {
		pending = []*model.PendingPayment{}
	}
	httputil.RespondWithSuccess(c, pending)
}

func (h *Handler) FinalizeTransaction(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.FinalizeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	txn, err := h.service.FinalizeTransaction(c.Request.Context(), id, req.Amount, model.PaymentMethod(req.Method))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, txn)
}
