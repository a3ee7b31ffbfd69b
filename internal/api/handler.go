package api

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/terraincognita07/cyclemark/internal/db"
	"github.com/terraincognita07/cyclemark/internal/i18n"
	"github.com/terraincognita07/cyclemark/internal/services"
	"gorm.io/gorm"
)

const (
	loginAttemptLimit  = 8
	loginAttemptWindow = 15 * time.Minute
	maxImportBodyBytes = 1 << 20

	sessionIdleTTL       = 12 * time.Hour
	sessionEvictInterval = 30 * time.Minute
)

type Handler struct {
	secretKey    []byte
	location     *time.Location
	cookieSecure bool
	i18n         *i18n.Manager
	now          func() time.Time

	repositories *db.Repositories
	authService  *services.AuthService
	settings     *services.NotificationSettingsService
	flusher      *services.RecordFlusher
	tracker      *services.TrackerService
	exporter     *services.CalendarExportService
	importer     *services.CalendarImportService
	loginLimiter *attemptLimiter
}

func NewHandler(database *gorm.DB, secretKey string, location *time.Location, i18nManager *i18n.Manager, cookieSecure bool) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("secret key is required")
	}
	if i18nManager == nil {
		return nil, errors.New("i18n manager is required")
	}
	if location == nil {
		location = time.UTC
	}

	handler := &Handler{
		secretKey:    []byte(secretKey),
		location:     location,
		cookieSecure: cookieSecure,
		i18n:         i18nManager,
		now:          time.Now,
		loginLimiter: newAttemptLimiter(loginAttemptLimit, loginAttemptWindow),
	}
	return handler.withDependencies(database), nil
}

func (handler *Handler) withDependencies(database *gorm.DB) *Handler {
	handler.repositories = db.NewRepositories(database)
	handler.authService = services.NewAuthService(handler.repositories.Users)
	handler.settings = services.NewNotificationSettingsService(handler.repositories.Users)
	handler.flusher = services.NewRecordFlusher(handler.repositories.CycleRecords)
	handler.tracker = services.NewTrackerService(handler.repositories.CycleRecords, handler.flusher, handler.location)
	handler.exporter = services.NewCalendarExportService(handler.location)
	handler.importer = services.NewCalendarImportService(handler.location)
	return handler
}

// Start runs background persistence and idle session eviction until ctx is
// done. The returned channel closes once the final save drain has finished.
func (handler *Handler) Start(ctx context.Context) <-chan struct{} {
	go func() {
		ticker := time.NewTicker(sessionEvictInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := handler.tracker.EvictIdle(sessionIdleTTL); evicted > 0 {
					log.Printf("tracker: evicted %d idle sessions", evicted)
				}
			}
		}
	}()
	return handler.flusher.Start(ctx)
}

// FlushPending writes queued records synchronously and returns the number of
// failed saves.
func (handler *Handler) FlushPending() int {
	return handler.flusher.Flush()
}

func (handler *Handler) Repositories() *db.Repositories {
	return handler.repositories
}
