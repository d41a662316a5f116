package controllers

import (
	"net/http"
	"strconv"

	"library_borrowing_service/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /users?q=alice&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Users.List(c.Request.Context(), q, page, size)
	if err != nil {
		uc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil { // 校验 UUID 格式
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid"})
		return
	}
	user, err := uc.Users.Me(c.Request.Context(), id)
	if err != nil {
		uc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": user})
}

// PATCH /users/:id/staff {"is_staff": true}
func (uc *UserController) SetStaff(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		IsStaff *bool `json:"is_staff" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	// 不允许取消自己的权限，避免锁死
	if !*in.IsStaff && requester(c).UserID == id {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot revoke your own staff access"})
		return
	}
	u, err := uc.Users.SetStaff(c.Request.Context(), id, *in.IsStaff)
	if err != nil {
		uc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}
