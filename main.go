package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"library_borrowing_service/app"
	"library_borrowing_service/config"
	"library_borrowing_service/controllers"
	"library_borrowing_service/db"
	"library_borrowing_service/routes"
	"library_borrowing_service/services"
)

const usage = "Usage: library <serve|migrate|sweep|create-staff>"

func main() {
	config.LoadEnv()
	log := newLogger(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(log)

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		cmdServe(log, args)
	case "migrate":
		cmdMigrate(log, args)
	case "sweep":
		cmdSweep(log, args)
	case "create-staff":
		cmdCreateStaff(log, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s\n", cmd, usage)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}

func cmdServe(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	noJobs := fs.Bool("no-jobs", false, "do not run the overdue sweep and abandoned-payment jobs")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.MustNew(log)
	defer application.Close()

	srv := controllers.GetSrv(application)
	routes.RegisterRoutes(application, srv)
	app.BootstrapStaff(ctx, application, srv.Users)

	if !*noJobs {
		sched := &services.Scheduler{
			Sweeper:        srv.Sweeper,
			Payments:       srv.Payments,
			Interval:       application.Config.SweepInterval,
			AbandonedAfter: application.Config.AbandonedAfter,
			Log:            log,
		}
		go sched.Start(ctx)
	}

	httpSrv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func cmdMigrate(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Parse(args)

	// Connect migrates on open.
	conn, err := db.Connect(app.LoadConfig().DB, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
	fmt.Println("Schema migrated.")
}

func cmdSweep(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	abandoned := fs.Bool("abandoned", true, "also resolve abandoned rent payments")
	fs.Parse(args)

	application := app.MustNew(log)
	defer application.Close()
	srv := controllers.GetSrv(application)

	ctx := context.Background()
	res, err := srv.Sweeper.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Overdue: %d found, %d notified, %d failed\n", res.Found, res.Notified, res.Failed)

	if *abandoned {
		n, err := srv.Payments.ResolveAbandoned(ctx, application.Config.AbandonedAfter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Abandoned payments resolved: %d\n", n)
	}
}

func cmdCreateStaff(log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("create-staff", flag.ExitOnError)
	email := fs.String("email", "", "staff email")
	password := fs.String("password", "", "staff password (min 8 characters)")
	first := fs.String("first-name", "", "first name")
	last := fs.String("last-name", "", "last name")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: library create-staff -email <email> -password <password>")
		os.Exit(1)
	}

	application := app.MustNew(log)
	defer application.Close()
	srv := controllers.GetSrv(application)

	u, err := srv.Users.CreateStaff(context.Background(), services.RegisterInput{
		Email: *email, Password: *password, FirstName: *first, LastName: *last,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Staff account created: %s (%s)\n", u.Email, u.ID)
}
