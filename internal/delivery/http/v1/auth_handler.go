package v1

import (
	"net/http"

	"go-jobboard-backend/internal/delivery/http/middleware"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC domain.AuthUsecase
}

func NewAuthHandler(public *gin.RouterGroup, protected *gin.RouterGroup, authUC domain.AuthUsecase) {
	handler := &AuthHandler{authUC: authUC}

	// Public Routes
	publicAuth := public.Group("/auth")
	{
		publicAuth.POST("/register/", handler.Register)
		publicAuth.POST("/login/", handler.Login)
		publicAuth.POST("/refresh/", handler.Refresh)
	}

	// Protected Routes
	protectedAuth := protected.Group("/auth")
	{
		protectedAuth.GET("/me/", handler.Me)
	}
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type AccessResponse struct {
	Access string `json:"access"`
}

// Register godoc
// @Summary      User Registration
// @Description  Register a new user. Role defaults to SEEKER.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        register  body      domain.RegisterInput  true  "Registration Details"
// @Success      201       {object}  domain.User
// @Failure      400       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Router       /auth/register/ [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	user, err := h.authUC.Register(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login godoc
// @Summary      User Login
// @Description  Exchange credentials for an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        login  body      domain.LoginInput  true  "Login Credentials"
// @Success      200    {object}  domain.TokenPair
// @Failure      400    {object}  response.Response
// @Failure      401    {object}  response.Response
// @Failure      429    {object}  response.Response
// @Router       /auth/login/ [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	pair, err := h.authUC.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refresh  body      RefreshRequest  true  "Refresh token"
// @Success      200      {object}  AccessResponse
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh/ [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	access, err := h.authUC.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, AccessResponse{Access: access})
}

// Me godoc
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Response
// @Router       /auth/me/ [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUC.GetCurrentUser(c.Request.Context(), middleware.ActorFrom(c).ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
