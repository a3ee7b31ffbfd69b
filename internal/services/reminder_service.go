package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/terraincognita07/cyclemark/internal/models"
)

const (
	DefaultReminderSchedule   = "0 9 * * *"
	DefaultReminderDaysBefore = 2
)

type ReminderRecordSource interface {
	ListReminderTargets() ([]models.ReminderTarget, error)
}

type Translator interface {
	DefaultLanguage() string
	Translatef(language string, key string, args ...any) string
}

type ReminderOptions struct {
	Schedule   string
	DaysBefore int
}

// ReminderService checks the record of every user with a Telegram chat on
// a cron schedule and sends at most one reminder of each kind per user per
// day, to that user's chat only.
type ReminderService struct {
	records    ReminderRecordSource
	notifier   Notifier
	translator Translator
	location   *time.Location
	schedule   string
	daysBefore int

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewReminderService(records ReminderRecordSource, notifier Notifier, translator Translator, location *time.Location, options ReminderOptions) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	schedule := options.Schedule
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}
	daysBefore := options.DaysBefore
	if daysBefore < 0 {
		daysBefore = DefaultReminderDaysBefore
	}

	return &ReminderService{
		records:    records,
		notifier:   notifier,
		translator: translator,
		location:   location,
		schedule:   schedule,
		daysBefore: daysBefore,
		sent:       make(map[string]time.Time),
	}
}

// ValidateReminderSchedule accepts standard five-field cron expressions.
func ValidateReminderSchedule(expression string) error {
	if _, err := cron.ParseStandard(expression); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", expression, err)
	}
	return nil
}

// Start runs the scheduler until ctx is done. It does nothing when the
// notifier is disabled.
func (service *ReminderService) Start(ctx context.Context) error {
	if service.notifier == nil || !service.notifier.Enabled() {
		log.Printf("reminders: notifier disabled, scheduler not started")
		return nil
	}

	scheduler := cron.New(cron.WithLocation(service.location))
	if _, err := scheduler.AddFunc(service.schedule, func() {
		service.RunOnce(ctx, time.Now())
	}); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	scheduler.Start()

	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()
	return nil
}

// RunOnce evaluates all reminder targets for the day of now and returns how
// many reminders were delivered.
func (service *ReminderService) RunOnce(ctx context.Context, now time.Time) int {
	targets, err := service.records.ListReminderTargets()
	if err != nil {
		log.Printf("reminders: fetch targets failed: %v", err)
		return 0
	}

	today := DateAtLocation(now, service.location)
	service.pruneSent(today)
	delivered := 0

	for _, target := range targets {
		if target.ChatID == "" {
			continue
		}
		record := target.Record
		language := target.Language
		if language == "" {
			language = service.translator.DefaultLanguage()
		}

		predictor := NewCyclePredictor(CycleConfigFromRecord(record), LockedDaysFromRecord(record, service.location), service.location)
		if !predictor.HasHistory() {
			continue
		}

		predicted := predictor.PredictedWindow()
		if AddDays(today, service.daysBefore).Equal(predicted.Start) {
			key := fmt.Sprintf("period:%d:%s", target.UserID, today.Format(DayLayout))
			message := service.translator.Translatef(language, "reminder.period",
				service.daysBefore,
				predicted.Start.Format(DayLayout),
			)
			if service.deliver(ctx, target.ChatID, key, today, message) {
				delivered++
			}
		}

		ovulation := predictor.OvulationWindow()
		if today.Equal(ovulation.Start) {
			key := fmt.Sprintf("ovulation:%d:%s", target.UserID, today.Format(DayLayout))
			message := service.translator.Translatef(language, "reminder.ovulation",
				ovulation.Start.Format(DayLayout),
				ovulation.End.Format(DayLayout),
			)
			if service.deliver(ctx, target.ChatID, key, today, message) {
				delivered++
			}
		}
	}
	return delivered
}

func (service *ReminderService) deliver(ctx context.Context, chatID string, key string, today time.Time, message string) bool {
	if !service.shouldSend(key, today) {
		return false
	}
	if err := service.notifier.Send(ctx, chatID, message); err != nil {
		log.Printf("reminders: send %s failed: %v", key, err)
		service.forget(key)
		return false
	}
	return true
}

func (service *ReminderService) shouldSend(key string, today time.Time) bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	if sentOn, ok := service.sent[key]; ok && sentOn.Equal(today) {
		return false
	}
	service.sent[key] = today
	return true
}

// pruneSent drops dedupe entries from earlier days. Keys carry their day, so
// nothing older than today can suppress a send.
func (service *ReminderService) pruneSent(today time.Time) int {
	service.mu.Lock()
	defer service.mu.Unlock()

	pruned := 0
	for key, sentOn := range service.sent {
		if sentOn.Before(today) {
			delete(service.sent, key)
			pruned++
		}
	}
	return pruned
}

func (service *ReminderService) forget(key string) {
	service.mu.Lock()
	defer service.mu.Unlock()
	delete(service.sent, key)
}
