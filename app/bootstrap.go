// app/bootstrap.go
package app

import (
	"context"

	"library_borrowing_service/services"
)

// BootstrapStaff creates the first staff account from BOOTSTRAP_STAFF_* when there is none.
func BootstrapStaff(ctx context.Context, a *App, users *services.Users) {
	if a.Config.BootstrapEmail == "" {
		return
	}
	n, err := a.Repo.CountStaff(ctx)
	if err != nil {
		a.Log.Warn("bootstrap: count staff", "err", err)
		return
	}
	if n > 0 {
		return // 已经有管理员，跳过
	}

	u, err := users.CreateStaff(ctx, services.RegisterInput{
		Email:    a.Config.BootstrapEmail,
		Password: a.Config.BootstrapPassword,
	})
	if err != nil {
		a.Log.Warn("bootstrap staff failed", "email", a.Config.BootstrapEmail, "err", err)
		return
	}
	a.Log.Info("[BOOTSTRAP] created first staff account", "email", u.Email)
}
