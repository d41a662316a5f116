package controllers

import (
	"net/http"
	"strconv"

	"library_borrowing_service/app"
	"library_borrowing_service/db"
	"library_borrowing_service/services"

	"github.com/gin-gonic/gin"
)

type BookController struct{ *Srv }

func NewBookController(s *Srv) *BookController { return &BookController{Srv: s} }

// GET /books/?q=&page=&size=
func (bc *BookController) ListBooks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	res, err := bc.Books.List(c.Request.Context(), db.BookQuery{Q: c.Query("q"), Page: page, Size: size})
	if err != nil {
		bc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (bc *BookController) GetBook(c *gin.Context) {
	b, err := bc.Books.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		bc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /books/ (staff)
func (bc *BookController) CreateBook(c *gin.Context) {
	var in services.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	b, err := bc.Books.Create(c.Request.Context(), in)
	if err != nil {
		bc.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// PUT/PATCH /books/:id (staff)
func (bc *BookController) UpdateBook(c *gin.Context) {
	var in services.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	full := c.Request.Method == http.MethodPut
	b, err := bc.Books.Update(c.Request.Context(), c.Param("id"), in, full)
	if err != nil {
		bc.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /books/:id (staff)
func (bc *BookController) DeleteBook(c *gin.Context) {
	if err := bc.Books.Delete(c.Request.Context(), c.Param("id")); err != nil {
		bc.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
