package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/cyclemark/internal/api"
	"github.com/terraincognita07/cyclemark/internal/cli"
	"github.com/terraincognita07/cyclemark/internal/config"
	"github.com/terraincognita07/cyclemark/internal/db"
	"github.com/terraincognita07/cyclemark/internal/i18n"
	"github.com/terraincognita07/cyclemark/internal/services"
)

const appVersion = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	load := func() (*config.Config, error) {
		if configPath != "" {
			return config.Load(configPath)
		}
		return config.LoadFromEnv()
	}

	root := &cobra.Command{
		Use:          "cyclemark",
		Short:        "Period tracker with cycle predictions and calendar feeds",
		Version:      appVersion,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (default: $CONFIG_PATH)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and reminder scheduler",
		RunE:  root.RunE,
	}

	var email string
	resetHistory := &cobra.Command{
		Use:   "reset-history",
		Short: "Clear locked period days and restore default settings for one account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return cli.RunResetHistoryCommand(cfg.DBPath, email, cmd.OutOrStdout())
		},
	}
	resetHistory.Flags().StringVar(&email, "email", "", "Account email")
	_ = resetHistory.MarkFlagRequired("email")

	resetPassword := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace an account password with a temporary one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return cli.RunResetPasswordCommand(cfg.DBPath, email, cmd.OutOrStdout())
		},
	}
	resetPassword.Flags().StringVar(&email, "email", "", "Account email")
	_ = resetPassword.MarkFlagRequired("email")

	var month string
	monthCmd := &cobra.Command{
		Use:   "month",
		Short: "Print one account's calendar month with day states",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			location := cfg.Location()
			return cli.RunMonthCommand(cfg.DBPath, email, month, location, time.Now().In(location), cmd.OutOrStdout())
		},
	}
	monthCmd.Flags().StringVar(&email, "email", "", "Account email")
	monthCmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month)")
	_ = monthCmd.MarkFlagRequired("email")

	root.AddCommand(serve, resetHistory, resetPassword, monthCmd)
	return root
}

func runServer(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	location := cfg.Location()
	time.Local = location

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}

	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage, i18n.Locales())
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	handler, err := api.NewHandler(database, cfg.SecretKey, location, i18nManager, cfg.CookieSecure)
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	app := newApp(handler, cfg.CookieSecure)

	lifecycleCtx, cancelLifecycle := context.WithCancel(context.Background())
	defer cancelLifecycle()
	flusherDone := handler.Start(lifecycleCtx)

	reminders := services.NewReminderService(
		handler.Repositories().CycleRecords,
		services.NewTelegramNotifier(cfg.Telegram.BotToken),
		i18nManager,
		location,
		services.ReminderOptions{
			Schedule:   cfg.Reminders.Schedule,
			DaysBefore: cfg.Reminders.DaysBefore,
		},
	)
	if err := reminders.Start(lifecycleCtx); err != nil {
		return fmt.Errorf("reminder scheduler init failed: %w", err)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-sigCtx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("Cyclemark listening on http://0.0.0.0:%s (db: %s, tz: %s)", cfg.Port, cfg.DBPath, location.String())
	listenErr := app.Listen(":" + cfg.Port)
	if listenErr == nil {
		// Listen returns once the listener closes; in-flight requests may
		// still be queueing saves until shutdown completes.
		<-shutdownDone
	}

	cancelLifecycle()
	<-flusherDone
	if failed := handler.FlushPending(); failed > 0 {
		log.Printf("shutdown: %d cycle records could not be saved", failed)
	}
	if listenErr != nil {
		return fmt.Errorf("server exited: %w", listenErr)
	}
	return nil
}

func newApp(handler *api.Handler, cookieSecure bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Cyclemark",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(handler.LanguageMiddleware)
	app.Use(csrf.New(csrfMiddlewareConfig(cookieSecure)))

	api.RegisterRoutes(app, handler)
	return app
}

// csrfMiddlewareConfig expects the token from GET /api/csrf echoed back in
// the X-CSRF-Token header of every mutating request.
func csrfMiddlewareConfig(cookieSecure bool) csrf.Config {
	return csrf.Config{
		KeyLookup:      "header:X-CSRF-Token",
		CookieName:     "cyclemark_csrf",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   cookieSecure,
		ContextKey:     "csrf",
	}
}
