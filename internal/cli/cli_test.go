package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/cyclemark/internal/db"
	"github.com/terraincognita07/cyclemark/internal/models"
	"github.com/terraincognita07/cyclemark/internal/services"
	"golang.org/x/crypto/bcrypt"
)

func seedAccount(t *testing.T, lockedDates []string) (string, *db.Repositories, models.User) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cyclemark-cli-test.db")
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	repositories := db.NewRepositories(database)
	user := models.User{
		Email:        "owner@example.com",
		PasswordHash: "unused",
		FeedToken:    "feed-token-for-cli-tests",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repositories.Users.Create(&user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := repositories.CycleRecords.Upsert(models.CycleRecord{
		UserID:       user.ID,
		CycleLength:  30,
		PeriodLength: 4,
		LockedDates:  lockedDates,
		HasSetup:     true,
		UpdatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return dbPath, repositories, user
}

func TestResetHistoryRestoresDefaults(t *testing.T) {
	dbPath, repositories, user := seedAccount(t, []string{"2024-01-01", "2024-01-02"})

	var out bytes.Buffer
	if err := RunResetHistoryCommand(dbPath, " Owner@Example.com ", &out); err != nil {
		t.Fatalf("RunResetHistoryCommand returned error: %v", err)
	}
	if !strings.Contains(out.String(), "owner@example.com") {
		t.Fatalf("unexpected output %q", out.String())
	}

	record, found, err := repositories.CycleRecords.FindByUserID(user.ID)
	if err != nil || !found {
		t.Fatalf("expected record after reset, found=%v err=%v", found, err)
	}
	if len(record.LockedDates) != 0 || record.CycleLength != models.DefaultCycleLength || record.PeriodLength != models.DefaultPeriodLength || record.HasSetup {
		t.Fatalf("expected defaults after reset, got %+v", record)
	}
}

func TestResetHistoryRejectsUnknownOrInvalidEmail(t *testing.T) {
	dbPath, _, _ := seedAccount(t, nil)

	if err := RunResetHistoryCommand(dbPath, "not-an-email", &bytes.Buffer{}); !errors.Is(err, ErrEmailInvalid) {
		t.Fatalf("expected ErrEmailInvalid, got %v", err)
	}
	err := RunResetHistoryCommand(dbPath, "missing@example.com", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestResetPasswordStoresUsableTemporaryPassword(t *testing.T) {
	dbPath, repositories, user := seedAccount(t, nil)

	var out bytes.Buffer
	if err := RunResetPasswordCommand(dbPath, "owner@example.com", &out); err != nil {
		t.Fatalf("RunResetPasswordCommand returned error: %v", err)
	}

	password := ""
	for _, line := range strings.Split(out.String(), "\n") {
		if value, ok := strings.CutPrefix(line, "Temporary password: "); ok {
			password = value
		}
	}
	if password == "" {
		t.Fatalf("expected temporary password in output %q", out.String())
	}

	updated, err := repositories.Users.FindByID(user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(password)); err != nil {
		t.Fatalf("stored hash does not match printed password: %v", err)
	}
}

func TestGenerateTemporaryPasswordPassesPolicy(t *testing.T) {
	t.Parallel()

	password, err := generateTemporaryPassword(4)
	if err != nil {
		t.Fatalf("generateTemporaryPassword returned error: %v", err)
	}
	if len(password) != services.MinPasswordLength {
		t.Fatalf("expected minimum length %d, got %d", services.MinPasswordLength, len(password))
	}
	if err := services.ValidatePasswordStrength(password); err != nil {
		t.Fatalf("temporary password %q fails policy: %v", password, err)
	}
	for _, char := range password {
		if !strings.ContainsRune(temporaryPasswordAlphabet, char) {
			t.Fatalf("password %q contains char %q outside alphabet", password, char)
		}
	}
}

func TestMonthCommandPrintsStatusLetters(t *testing.T) {
	dbPath, _, _ := seedAccount(t, []string{"2024-01-01"})
	now := time.Date(2024, time.January, 14, 12, 0, 0, 0, time.UTC)

	var out bytes.Buffer
	if err := RunMonthCommand(dbPath, "owner@example.com", "2024-01", time.UTC, now, &out); err != nil {
		t.Fatalf("RunMonthCommand returned error: %v", err)
	}

	rendered := out.String()
	for _, fragment := range []string{
		"owner@example.com (2024-01)",
		" 01L ",
		" 04O ",
		" 14V*",
		" 30P ",
		monthLegend,
	} {
		if !strings.Contains(rendered, fragment) {
			t.Fatalf("expected %q in output\n%s", fragment, rendered)
		}
	}
}

func TestMonthCommandRejectsInvalidMonth(t *testing.T) {
	dbPath, _, _ := seedAccount(t, nil)

	err := RunMonthCommand(dbPath, "owner@example.com", "2024/01", time.UTC, time.Now(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected invalid month error")
	}
}
