package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salary-tracker/core/loader"
	"salary-tracker/core/logger"
	"salary-tracker/core/middleware/auth"
	"salary-tracker/core/middleware/rayid"
	"salary-tracker/feature/compensation"
	"salary-tracker/feature/inflation"
	"salary-tracker/feature/integrity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "salary-tracker/docs/swagger"
)

// @title Salary Tracker API
// @version 1.0
// @description Compensation history, payroll reconciliation and CPI based inflation figures.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the salary tracker server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := bootstrap()
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer a.close()

		cfg := a.cfg
		logg := a.logger
		zap.ReplaceGlobals(logg)

		if err := cfg.Server.Validate(); err != nil {
			logg.Fatal("Invalid server configuration", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimitBytes(),
			ReadTimeout:           time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		})

		mgr := loader.NewManager(logg)
		mgr.Register(compensation.NewFeature(a.compensation))
		mgr.Register(inflation.NewFeature(a.inflation))
		mgr.Register(integrity.NewFeature(a.integrity))

		// RayID first so every later log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			start := time.Now()
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			l.Info("Request completed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Int("status", c.Response().StatusCode()),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		skip := []string{}
		if cfg.Metrics.Enabled {
			app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(a.metrics.Handler()))
			skip = append(skip, cfg.Metrics.Path)
		}

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: skip}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
