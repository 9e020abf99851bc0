// Package handler holds helpers shared by the HTTP handlers.
package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

// Handler is implemented by every route group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// ParamID parses the uuid path parameter name.
func ParamID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

// QueryID parses a required uuid query parameter.
func QueryID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest(fmt.Sprintf("%s must be a valid id", name), err)
	}
	return id, nil
}

// QueryDate parses a required YYYY-MM-DD query parameter.
func QueryDate(c *gin.Context, name string) (model.Date, error) {
	d, err := model.ParseDate(c.Query(name))
	if err != nil {
		return model.Date{}, apperrors.BadRequest(fmt.Sprintf("%s must be formatted YYYY-MM-DD", name), err)
	}
	return d, nil
}

// User returns the authenticated caller. Routes are always behind Authenticate.
func User(c *gin.Context) (model.CurrentUser, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return model.CurrentUser{}, apperrors.Unauthorized(nil)
	}
	return user, nil
}

// ParseIDs converts validated string ids.
func ParseIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperrors.BadRequest("invalid id "+s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
