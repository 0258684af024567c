package cmd

import (
	"context"
	"net"
	"time"

	"github.com/tubeworks/ms-go-accounts/app/controller"
	"github.com/tubeworks/ms-go-accounts/app/middleware"
	"github.com/tubeworks/ms-go-accounts/app/repository"
	"github.com/tubeworks/ms-go-accounts/app/service"
	"github.com/tubeworks/ms-go-accounts/app/uploader"
	"github.com/tubeworks/ms-go-accounts/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the user account service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logrus.WithError(err).Error("Failed to disconnect from database")
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	db := client.Database(cfg.MongoDatabase)
	userRepo := repository.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(pingCtx); err != nil {
		logrus.WithError(err).Fatal("Failed to create indexes")
	}

	mediaUploader, err := uploader.NewS3Uploader(context.Background(), cfg.S3)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure media uploader")
	}

	tokenIssuer := service.NewTokenIssuer(cfg)
	accountService := service.NewAccountService(userRepo, mediaUploader, service.BcryptHasher{}, tokenIssuer)

	startHTTPServer(cfg, accountService)
}

func startHTTPServer(cfg *config.Config, accountService service.AccountService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true
	e.HTTPErrorHandler = controller.ErrorHandler

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Static("/", cfg.StaticDir)

	userController := controller.NewUserController(accountService, cfg)
	authMiddleware := middleware.NewAuthMiddleware(accountService)

	// Register takes multipart image uploads, so the JSON body limit is
	// applied per route instead of globally.
	bodyLimit := echomiddleware.BodyLimit(cfg.BodyLimit)

	users := e.Group("/users")
	users.POST("/register", userController.Register)
	users.POST("/login", userController.Login, bodyLimit)
	users.POST("/refresh-token", userController.RefreshToken, bodyLimit)

	usersProtected := users.Group("", authMiddleware.RequireAuth, bodyLimit)
	usersProtected.POST("/logout", userController.Logout)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
