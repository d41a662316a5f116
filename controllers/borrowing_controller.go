// controllers/borrowing_controller.go
package controllers

import (
	"net/http"
	"time"

	"library_borrowing_service/app"
	"library_borrowing_service/services"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type BorrowingController struct{ *Srv }

func NewBorrowingController(s *Srv) *BorrowingController { return &BorrowingController{Srv: s} }

// 借出
// POST /borrowings/ {"book": "<id>", "expected_return_date": "2026-11-01"}
func (bc *BorrowingController) CreateBorrowing(c *gin.Context) {
	var in struct {
		Book               string `json:"book" binding:"required"`
		ExpectedReturnDate string `json:"expected_return_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	due, err := time.Parse(dateLayout, in.ExpectedReturnDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "Date has wrong format. Use YYYY-MM-DD.", "field": "expected_return_date"})
		return
	}

	b, err := bc.Borrowings.CreateBorrowing(c.Request.Context(), services.CreateBorrowingInput{
		BookID:             in.Book,
		ExpectedReturnDate: due,
		UserID:             requester(c).UserID,
	})
	if err != nil {
		bc.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// 归还
func (bc *BorrowingController) ReturnBorrowing(c *gin.Context) {
	b, fine, err := bc.Borrowings.ReturnBorrowing(c.Request.Context(), c.Param("id"), requester(c))
	if err != nil {
		bc.writeError(c, err)
		return
	}
	body := app.H{"success": "Your book was successfully returned", "borrowing": b}
	if fine != nil {
		body["fine"] = fine
	}
	c.JSON(http.StatusOK, body)
}

// 借还记录 ?is_active=true|false&user_id=
func (bc *BorrowingController) ListBorrowings(c *gin.Context) {
	bs, err := bc.Borrowings.List(c.Request.Context(), requester(c), services.BorrowingFilter{
		IsActive: queryBool(c, "is_active"),
		UserID:   c.Query("user_id"),
	})
	if err != nil {
		bc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": bs})
}

func (bc *BorrowingController) GetBorrowing(c *gin.Context) {
	b, err := bc.Borrowings.Get(c.Request.Context(), c.Param("id"), requester(c))
	if err != nil {
		bc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
