package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	"github.com/sorosurance/sorosurance-backend/internal/http/response"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
)

type UserHandler struct {
	users userrepo.UserRepo
}

func NewUserHandler(users userrepo.UserRepo) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	rd, ok := ctxutil.GetRequestData(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.ErrUnauthorized)
		return
	}
	userID, err := uuid.Parse(rd.UserID)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	found, err := h.users.GetByIDs(dbctx.New(c.Request.Context()), []uuid.UUID{userID})
	if err != nil || len(found) == 0 {
		response.RespondError(c, http.StatusNotFound, "user_not_found", errors.ErrNotFound)
		return
	}
	u := found[0]
	response.RespondOK(c, gin.H{
		"user":       u,
		"risk_level": u.RiskLevel(),
	})
}
