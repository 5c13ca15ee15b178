package httpHandler

import (
	"net/http"

	"users-server/apperrors"
	"users-server/entities"
	"users-server/usecases"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	useCase *usecases.UserUseCase
}

func NewUserHandler(useCase *usecases.UserUseCase) *UserHandler {
	return &UserHandler{
		useCase: useCase,
	}
}

// GetAllUsers handles GET /api/v1/users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.useCase.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req entities.NewUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body: " + err.Error()))
		return
	}

	user, err := h.useCase.CreateUser(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// FindUser handles GET /api/v1/users/:username. An unknown username is not
// an error: the body is JSON null with status 200.
func (h *UserHandler) FindUser(c *gin.Context) {
	user, err := h.useCase.FindUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Login handles POST /api/v1/login
func (h *UserHandler) Login(c *gin.Context) {
	var req entities.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body: " + err.Error()))
		return
	}

	user, err := h.useCase.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}
