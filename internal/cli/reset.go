package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/cyclemark/internal/db"
	"github.com/terraincognita07/cyclemark/internal/models"
	"github.com/terraincognita07/cyclemark/internal/security"
	"github.com/terraincognita07/cyclemark/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const temporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

var ErrEmailInvalid = errors.New("a valid email is required")

// openAccount opens the database and resolves one account by email.
func openAccount(dbPath string, email string) (*db.Repositories, models.User, error) {
	normalizedEmail := services.NormalizeAuthEmail(email)
	if normalizedEmail == "" {
		return nil, models.User{}, ErrEmailInvalid
	}

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return nil, models.User{}, fmt.Errorf("database init failed: %w", err)
	}

	repositories := db.NewRepositories(database)
	user, err := repositories.Users.FindByNormalizedEmail(normalizedEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.User{}, fmt.Errorf("user %s not found", normalizedEmail)
		}
		return nil, models.User{}, fmt.Errorf("load user: %w", err)
	}
	return repositories, user, nil
}

// RunResetHistoryCommand clears every locked period day of one account and
// restores the default cycle settings.
func RunResetHistoryCommand(dbPath string, email string, out io.Writer) error {
	repositories, user, err := openAccount(dbPath, email)
	if err != nil {
		return err
	}

	if err := repositories.CycleRecords.ResetHistory(user.ID); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}

	fmt.Fprintf(out, "History reset for %s\n", user.Email)
	fmt.Fprintf(out, "Settings restored to %d-day cycle, %d-day period.\n", models.DefaultCycleLength, models.DefaultPeriodLength)
	return nil
}

func RunResetPasswordCommand(dbPath string, email string, out io.Writer) error {
	repositories, user, err := openAccount(dbPath, email)
	if err != nil {
		return err
	}

	temporaryPassword, err := generateTemporaryPassword(12)
	if err != nil {
		return fmt.Errorf("generate temporary password: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(temporaryPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash temporary password: %w", err)
	}
	if err := repositories.Users.UpdatePasswordHash(user.ID, string(passwordHash)); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	fmt.Fprintf(out, "Password reset for %s\n", user.Email)
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	return nil
}

// generateTemporaryPassword always includes an upper-case letter, a
// lower-case letter and a digit so the result passes the login policy.
func generateTemporaryPassword(length int) (string, error) {
	if length < services.MinPasswordLength {
		length = services.MinPasswordLength
	}

	for {
		candidate, err := security.RandomString(length, temporaryPasswordAlphabet)
		if err != nil {
			return "", err
		}
		if services.ValidatePasswordStrength(candidate) == nil {
			return candidate, nil
		}
	}
}
