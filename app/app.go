package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"library_borrowing_service/checkout"
	"library_borrowing_service/db"
	"library_borrowing_service/notify"
	"library_borrowing_service/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config
	Log    *slog.Logger

	Repo     *db.Repo
	Tokens   *session.Tokens
	Revoked  *session.RevocationStore
	Gateway  checkout.Gateway
	Hub      *notify.Hub
	Notifier notify.Sink
}

// Config 从环境变量读取
type Config struct {
	DB        db.Options
	RedisAddr string
	RedisPwd  string
	WebOrigin string
	PublicURL string
	Port      string

	JWTSecret string
	TokenTTL  time.Duration

	StripeKey       string
	Currency        string
	CheckoutTimeout time.Duration

	TelegramToken  string
	TelegramChatID string
	SMTP           notify.SMTPConf
	NotifyEmails   []string

	SweepInterval  time.Duration
	AbandonedAfter time.Duration

	BootstrapEmail    string
	BootstrapPassword string
	LogLevel          string
}

// MustNew wires the production dependencies from the environment.
func MustNew(log *slog.Logger) *App {
	cfg := LoadConfig()

	dbConn, err := db.Connect(cfg.DB, log)
	if err != nil {
		log.Error("database", "err", err)
		os.Exit(1)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis", "err", err)
		os.Exit(1)
	}

	gw := checkout.NewStripeGateway(cfg.StripeKey, &http.Client{Timeout: cfg.CheckoutTimeout})
	return New(cfg, dbConn, rdb, gw, log)
}

// New assembles an App from ready connections.
func New(cfg Config, dbConn *gorm.DB, rdb *redis.Client, gw checkout.Gateway, log *slog.Logger) *App {
	hub := notify.NewHub(log, cfg.WebOrigin)

	// --- Gin ---
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:   r,
		DB:       dbConn,
		RDB:      rdb,
		Config:   cfg,
		Log:      log,
		Repo:     db.NewRepo(dbConn),
		Tokens:   session.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Revoked:  session.NewRevocationStore(rdb, cfg.TokenTTL),
		Gateway:  gw,
		Hub:      hub,
		Notifier: notifier(cfg, hub, log),
	}
}

// notifier fans out to every configured channel plus the WebSocket hub.
func notifier(cfg Config, hub *notify.Hub, log *slog.Logger) notify.Sink {
	sinks := notify.Multi{hub}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		sinks = append(sinks, notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.SMTP.Host != "" && len(cfg.NotifyEmails) > 0 {
		sinks = append(sinks, notify.NewMail(cfg.SMTP, cfg.NotifyEmails))
	}
	if len(sinks) == 1 {
		sinks = append(sinks, notify.LogSink{Log: log})
	}
	return sinks
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *App) Addr() string { return ":" + a.Config.Port }

func LoadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	dur := func(k string, def int, unit time.Duration) time.Duration {
		n, err := strconv.Atoi(get(k, strconv.Itoa(def)))
		if err != nil || n <= 0 {
			n = def
		}
		return time.Duration(n) * unit
	}
	list := func(k string) []string {
		var out []string
		for _, s := range strings.Split(os.Getenv(k), ",") {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, strings.ToLower(t))
			}
		}
		return out
	}

	port := get("PORT", "8000")
	return Config{
		DB: db.Options{
			Driver:     get("DB_DRIVER", "postgres"),
			Host:       get("DB_HOST", "127.0.0.1"),
			User:       get("DB_USER", "postgres"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       get("DB_NAME", "library"),
			Port:       get("DB_PORT", "5432"),
			SQLitePath: get("SQLITE_PATH", "library.sqlite3"),
		},
		RedisAddr: get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:  os.Getenv("REDIS_PASSWORD"),
		WebOrigin: get("WEB_ORIGIN", "http://localhost:3000"),
		PublicURL: get("PUBLIC_URL", fmt.Sprintf("http://localhost:%s", port)),
		Port:      port,

		JWTSecret: get("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  dur("TOKEN_TTL_HOURS", 24, time.Hour),

		StripeKey:       os.Getenv("STRIPE_SECRET_KEY"),
		Currency:        strings.ToLower(get("CHECKOUT_CURRENCY", "usd")),
		CheckoutTimeout: dur("CHECKOUT_TIMEOUT_SECONDS", 10, time.Second),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
		SMTP: notify.SMTPConf{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     get("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			AppName:  get("APP_NAME", "Library"),
		},
		NotifyEmails: list("NOTIFY_EMAILS"),

		SweepInterval:  dur("SWEEP_INTERVAL_MINUTES", 24*60, time.Minute),
		AbandonedAfter: dur("ABANDONED_AFTER_MINUTES", 30, time.Minute),

		BootstrapEmail:    strings.ToLower(os.Getenv("BOOTSTRAP_STAFF_EMAIL")),
		BootstrapPassword: os.Getenv("BOOTSTRAP_STAFF_PASSWORD"),
		LogLevel:          get("LOG_LEVEL", "info"),
	}
}
