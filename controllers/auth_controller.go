package controllers

import (
	"net/http"

	"library_borrowing_service/app"
	"library_borrowing_service/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	u, err := ac.Users.Register(c.Request.Context(), in)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	res, err := ac.Users.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if cl := claims(c); cl != nil {
		if err := ac.Users.Logout(c.Request.Context(), cl); err != nil {
			ac.writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /auth/me
func (ac *AuthController) Me(c *gin.Context) {
	u, err := ac.Users.Me(c.Request.Context(), requester(c).UserID)
	if err != nil {
		ac.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
