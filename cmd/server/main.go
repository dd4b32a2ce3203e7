// @title           Legal Case Console
// @version         1.0
// @description     Backend-for-frontend for the firm's case management console: session, dashboard, cases, payments, users and profile.
// @contact.name    Aldo Rifki Putra
// @contact.email   aldoetobex@gmail.com
// @BasePath        /
// @schemes         http
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/internal/cases"
	"github.com/aldoetobex/legal-case-console/internal/config"
	"github.com/aldoetobex/legal-case-console/internal/dashboard"
	"github.com/aldoetobex/legal-case-console/internal/logging"
	"github.com/aldoetobex/legal-case-console/internal/payments"
	"github.com/aldoetobex/legal-case-console/internal/users"
	"github.com/aldoetobex/legal-case-console/internal/viewstate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.IsProd(), cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.IsProd() {
			log.Fatal("SESSION_SECRET is required in production")
		}
		// Dev only: snapshots do not survive a restart.
		secret = uuid.NewString()
		log.Warn("SESSION_SECRET not set, using an ephemeral secret")
	}

	api := backend.New(cfg.APIBaseURL, cfg.UpstreamTimeout, log)
	svc := auth.NewService(api, secret, cfg.SessionCookie, cfg.IsProd(), log)

	usersH := users.NewHandler(svc, log, users.Options{
		DefaultAvatar: cfg.DefaultAvatar,
		Location:      cfg.Location(),
		IdleTTL:       cfg.SessionIdleTTL,
	})
	casesH := cases.NewHandler(svc, log, cases.Options{Location: cfg.Location(), IdleTTL: cfg.SessionIdleTTL})
	payH := payments.NewHandler(svc, log, payments.Options{Location: cfg.Location(), IdleTTL: cfg.SessionIdleTTL})
	dashH := dashboard.NewHandler(svc, log, dashboard.Options{DefaultAvatar: cfg.DefaultAvatar, Location: cfg.Location()})

	var stores []viewstate.Store
	stores = append(stores, usersH.Stores()...)
	stores = append(stores, casesH.Stores()...)
	stores = append(stores, payH.Stores()...)
	droppers := make([]viewstate.Dropper, 0, len(stores))
	for _, s := range stores {
		droppers = append(droppers, s)
	}
	authH := auth.NewHandler(svc, log, droppers...)

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
		// per-session state keeps request values past the handler
		Immutable: true,
		AppName:      "legal-case-console",
	})
	app.Use(recover.New())
	app.Use(logging.Requests(log))

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	// Session
	session := svc.RequireSession()
	app.Get("/session", session, authH.Session)
	app.Post("/logout", authH.Logout)

	// Dashboard
	app.Get("/dashboard", session, dashH.Overview)

	// Users
	app.Get("/users/new", session, usersH.NewUser)
	app.Post("/users/close", session, usersH.CloseNewUser)
	app.Post("/users/password-check", session, usersH.PasswordCheck)
	app.Post("/users", session, usersH.CreateUser)

	// Profile
	app.Get("/profile", session, usersH.Profile)
	app.Post("/profile/edit", session, usersH.EditProfile)
	app.Post("/profile/cancel", session, usersH.CancelProfile)
	app.Patch("/profile", session, usersH.SetProfileField)
	app.Put("/profile", session, usersH.SaveProfile)

	// Cases (Admin and Lawyer only)
	cg := app.Group("/cases", session, auth.RequireCapability(func(c auth.Capabilities) bool { return c.ManageCases }))
	cg.Get("/", casesH.List)
	cg.Get("/new", casesH.NewCase)
	cg.Post("/", casesH.CreateCase)
	cg.Get("/:id/edit", casesH.OpenEdit)
	cg.Patch("/:id/edit", casesH.SetEditField)
	cg.Post("/:id/edit", casesH.SubmitEdit)
	cg.Delete("/:id/edit", casesH.CloseEdit)

	// Payments
	pg := app.Group("/payments", session)
	pg.Get("/", payH.List)
	pg.Get("/new", payH.NewPayment)
	pg.Patch("/new", payH.SetField)
	pg.Delete("/new", payH.ClosePayment)
	pg.Post("/", payH.CreatePayment)
	pg.Delete("/:id", payH.DeletePayment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go viewstate.RunSweeper(ctx, time.Minute, stores...)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("console listening", zap.String("port", cfg.Port), zap.String("api", cfg.APIBaseURL))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}
