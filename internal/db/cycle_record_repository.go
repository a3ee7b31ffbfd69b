package db

import (
	"errors"
	"time"

	"github.com/terraincognita07/cyclemark/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CycleRecordRepository struct {
	database *gorm.DB
}

func NewCycleRecordRepository(database *gorm.DB) *CycleRecordRepository {
	return &CycleRecordRepository{database: database}
}

func (repo *CycleRecordRepository) FindByUserID(userID uint) (models.CycleRecord, bool, error) {
	var record models.CycleRecord
	err := repo.database.Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CycleRecord{}, false, nil
	}
	if err != nil {
		return models.CycleRecord{}, false, err
	}
	if record.LockedDates == nil {
		record.LockedDates = []string{}
	}
	return record, true, nil
}

// Upsert writes the whole record; the latest call for a user wins.
func (repo *CycleRecordRepository) Upsert(record models.CycleRecord) error {
	if record.LockedDates == nil {
		record.LockedDates = []string{}
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	return repo.database.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cycle_length",
			"period_length",
			"locked_dates",
			"has_setup",
			"updated_at",
		}),
	}).Create(&record).Error
}

// ListReminderTargets returns the record of every user who registered a
// Telegram chat, ordered by user ID. Users without a stored record get the
// default settings and no history.
func (repo *CycleRecordRepository) ListReminderTargets() ([]models.ReminderTarget, error) {
	users := make([]models.User, 0)
	if err := repo.database.
		Where("telegram_chat_id <> ''").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []models.ReminderTarget{}, nil
	}

	userIDs := make([]uint, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}
	records := make([]models.CycleRecord, 0, len(users))
	if err := repo.database.Where("user_id IN ?", userIDs).Find(&records).Error; err != nil {
		return nil, err
	}
	byUser := make(map[uint]models.CycleRecord, len(records))
	for _, record := range records {
		if record.LockedDates == nil {
			record.LockedDates = []string{}
		}
		byUser[record.UserID] = record
	}

	targets := make([]models.ReminderTarget, 0, len(users))
	for _, user := range users {
		record, ok := byUser[user.ID]
		if !ok {
			record = models.CycleRecord{
				UserID:       user.ID,
				CycleLength:  models.DefaultCycleLength,
				PeriodLength: models.DefaultPeriodLength,
				LockedDates:  []string{},
			}
		}
		targets = append(targets, models.ReminderTarget{
			UserID:   user.ID,
			ChatID:   user.TelegramChatID,
			Language: user.Language,
			Record:   record,
		})
	}
	return targets, nil
}

// ResetHistory drops every locked day and restores the default settings.
func (repo *CycleRecordRepository) ResetHistory(userID uint) error {
	return repo.Upsert(models.CycleRecord{
		UserID:       userID,
		CycleLength:  models.DefaultCycleLength,
		PeriodLength: models.DefaultPeriodLength,
		LockedDates:  []string{},
		HasSetup:     false,
		UpdatedAt:    time.Now().UTC(),
	})
}
