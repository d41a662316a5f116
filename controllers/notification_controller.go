package controllers

import (
	"net/http"
	"strconv"

	"library_borrowing_service/app"

	"github.com/gin-gonic/gin"
)

type NotificationController struct{ *Srv }

func NewNotificationController(s *Srv) *NotificationController {
	return &NotificationController{Srv: s}
}

// GET /notifications?kind=overdue&limit=50
func (nc *NotificationController) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := nc.Repo.ListNotifications(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		nc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": logs})
}

// POST /notifications/sweep runs one overdue sweep now.
func (nc *NotificationController) RunSweep(c *gin.Context) {
	res, err := nc.Sweeper.Run(c.Request.Context())
	if err != nil {
		nc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /ws/notifications
func (nc *NotificationController) Stream(c *gin.Context) {
	if err := nc.Hub.Serve(c.Writer, c.Request); err != nil {
		nc.Log.Debug("websocket closed", "err", err)
	}
}
