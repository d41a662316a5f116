package routes

import (
	"net/http"
	"time"

	"library_borrowing_service/app"
	"library_borrowing_service/controllers"
)

func RegisterRoutes(a *app.App, s *controllers.Srv) {
	r := a.Router

	// 控制器与依赖
	authCtl := controllers.NewAuthController(s)
	bookCtl := controllers.NewBookController(s)
	borrowCtl := controllers.NewBorrowingController(s)
	payCtl := controllers.NewPaymentController(s)
	userCtl := controllers.NewUserController(s)
	noteCtl := controllers.NewNotificationController(s)

	// 复用的中间件
	authMW := app.AuthRequired(a.Tokens, a.Revoked, a.Repo)
	staffMW := app.StaffOnly()
	seenMW := app.TouchLastSeen(a.Repo, a.RDB, 5*time.Minute)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// ------------------------------
	// 认证
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
	}
	authed := auth.Group("", authMW, seenMW)
	{
		authed.POST("/logout", authCtl.Logout)
		authed.GET("/me", authCtl.Me)
	}

	// ------------------------------
	// 图书：公开浏览，管理员维护
	// ------------------------------
	books := r.Group("/books")
	{
		books.GET("/", bookCtl.ListBooks)
		books.GET("/:id", bookCtl.GetBook)
	}
	booksAdmin := r.Group("/books", authMW, staffMW)
	{
		booksAdmin.POST("/", bookCtl.CreateBook)
		booksAdmin.PUT("/:id", bookCtl.UpdateBook)
		booksAdmin.PATCH("/:id", bookCtl.UpdateBook)
		booksAdmin.DELETE("/:id", bookCtl.DeleteBook)
	}

	// ------------------------------
	// 借还
	// ------------------------------
	borrowings := r.Group("/borrowings", authMW, seenMW)
	{
		borrowings.GET("/", borrowCtl.ListBorrowings) // ?is_active=&user_id=
		borrowings.POST("/", borrowCtl.CreateBorrowing)
		borrowings.GET("/:id", borrowCtl.GetBorrowing)
		borrowings.POST("/:id/return", borrowCtl.ReturnBorrowing)
	}

	// ------------------------------
	// 支付
	// ------------------------------
	payments := r.Group("/payments", authMW, seenMW)
	{
		payments.GET("/", payCtl.ListPayments)
		payments.GET("/:id", payCtl.GetPayment)
		payments.GET("/:id/success", payCtl.PaymentSuccess)
		payments.GET("/:id/cancel", payCtl.PaymentCancel)
		payments.POST("/:id/checkout", payCtl.Checkout)
	}

	// ------------------------------
	// 用户管理 + 通知（仅管理员）
	// ------------------------------
	users := r.Group("/users", authMW, staffMW)
	{
		users.GET("", userCtl.ListUsers) // ?q=&page=&size=
		users.GET("/:id", userCtl.GetUser)
		users.PATCH("/:id/staff", userCtl.SetStaff)
	}
	notes := r.Group("/notifications", authMW, staffMW)
	{
		notes.GET("", noteCtl.ListNotifications)
		notes.POST("/sweep", noteCtl.RunSweep)
	}
	r.GET("/ws/notifications", authMW, staffMW, noteCtl.Stream)
}
