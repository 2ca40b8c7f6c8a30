package main

import (
	"context"
	"errors"

	"fleettrack-backend/internal/admin"
	"fleettrack-backend/internal/apperr"
	"fleettrack-backend/internal/auth"
	"fleettrack-backend/internal/config"
	"fleettrack-backend/internal/database"
	"fleettrack-backend/internal/installation"
	"fleettrack-backend/internal/logger"
	"fleettrack-backend/internal/mailer"
	"fleettrack-backend/internal/otp"
	"fleettrack-backend/internal/sms"
	"fleettrack-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	database.Init(cfg, log)

	ctx := context.Background()
	rdb := database.NewRedis(cfg.Redis)
	if err := database.PingRedis(ctx, rdb); err != nil {
		log.Fatal("redis unavailable", zap.Error(err))
	}

	smsSender, err := sms.NewSNSSender(ctx, cfg.AWS.Region, cfg.AWS.SMSSender)
	if err != nil {
		log.Fatal("sns client setup failed", zap.Error(err))
	}
	emailSender, err := mailer.NewSESMailer(ctx, cfg.AWS.Region, cfg.AWS.EmailFrom)
	if err != nil {
		log.Fatal("ses client setup failed", zap.Error(err))
	}

	otpStore := otp.NewRedisStore(rdb)
	userOTP := otp.NewService(otpStore, smsSender,
		users.Accounts{DB: database.DB}, users.Tokens{DB: database.DB},
		cfg.OTPTTL, log.Named("otp.users"))
	vehicleOTP := otp.NewService(otpStore, smsSender,
		installation.Vehicles{DB: database.DB}, installation.VehicleTokens{DB: database.DB},
		cfg.OTPTTL, log.Named("otp.vehicles"))

	notifier := users.NewAdminNotifier(emailSender,
		users.GormNotificationStore{DB: database.DB}, log.Named("notify"))

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, PUT, DELETE, OPTIONS",
	}))

	api := app.Group("/api")

	// public
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/user/send-otp", users.SendOTPHandler(userOTP))
	api.Post("/auth/user/verify-otp", users.VerifyOTPHandler(userOTP))
	api.Post("/installations/send-otp", installation.SendOTPHandler(vehicleOTP))
	api.Post("/installations/verify-otp", installation.VerifyOTPHandler(vehicleOTP))

	// vehicle endpoints: opaque vehicle token only
	api.Get("/installations/mine", auth.VehicleAuthMiddleware(), installation.MyInstallationHandler())
	api.Get("/installations/mine/status", auth.VehicleAuthMiddleware(), installation.MyStatusHandler())

	// staff endpoints: Bearer JWT or the opaque OTP token
	staff := api.Group("", auth.UserAuthMiddleware(cfg))

	staff.Post("/auth/logout", auth.LogoutHandler())
	staff.Post("/auth/change-password", auth.ChangePasswordHandler())
	staff.Get("/auth/me", auth.MeHandler())

	staff.Post("/users", users.RegisterHandler())
	staff.Get("/users/managers", users.ListManagersHandler())
	staff.Delete("/users/managers/:id", users.ManagerDeleteHandler())
	staff.Get("/users/admins", users.ListAdminsHandler())
	staff.Patch("/users/:id", users.UpdateUserHandler())

	staff.Post("/contact-admin", users.ContactAdminHandler(notifier))
	staff.Get("/contact-attempts", users.ListContactAttemptsHandler())
	staff.Get("/notifications", users.NotificationsHandler())

	staff.Post("/branches", admin.CreateBranchHandler())
	staff.Get("/branches", admin.ListBranchesHandler())
	staff.Get("/branches/:id", admin.GetBranchHandler())
	staff.Patch("/branches/:id", admin.UpdateBranchHandler())
	staff.Delete("/branches/:id", admin.DeleteBranchHandler())

	staff.Post("/installations", installation.CreateInstallationHandler())
	staff.Get("/installations", installation.ListInstallationsHandler())
	staff.Get("/installations/recent", installation.RecentInstallationsHandler())
	staff.Get("/installations/recent/branches", installation.BranchWiseRecentHandler())
	staff.Get("/installations/recent/branches/:id", installation.BranchRecentHandler())
	staff.Get("/installations/compare", installation.CompareBranchesHandler())
	staff.Patch("/installations/:id", installation.UpdateInstallationHandler())
	staff.Delete("/installations/:id", installation.DeleteInstallationHandler())

	log.Info("server starting", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// errorHandler maps the error taxonomy onto HTTP statuses and keeps internal
// details out of response bodies.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return c.Status(apperr.HTTPStatus(ae.Code)).JSON(fiber.Map{
				"error":   ae.Code,
				"message": ae.Message,
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		log.Error("unhandled error",
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
}
