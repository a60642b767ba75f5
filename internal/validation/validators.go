package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/habitosecreto/habito-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("habit_category", validateHabitCategory); err != nil {
		panic(fmt.Sprintf("failed to register habit_category validator: %v", err))
	}
	if err := Validate.RegisterValidation("notification_type", validateNotificationType); err != nil {
		panic(fmt.Sprintf("failed to register notification_type validator: %v", err))
	}
}

// validateHabitCategory validates that a string is a known catalog category
func validateHabitCategory(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.CategoryPhysicalHealth, models.CategoryMind, models.CategoryProductivity, models.CategoryCustom:
		return true
	default:
		return false
	}
}

// validateNotificationType validates that a string is a valid NotificationType enum value
func validateNotificationType(fl validator.FieldLevel) bool {
	switch models.NotificationType(fl.Field().String()) {
	case models.NotificationSuccess, models.NotificationInfo, models.NotificationMilestone:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateHabitCategory validates a habit category string value
func ValidateHabitCategory(value string) error {
	switch value {
	case models.CategoryPhysicalHealth, models.CategoryMind, models.CategoryProductivity, models.CategoryCustom:
		return nil
	default:
		return fmt.Errorf("invalid category: %s", value)
	}
}

// ValidateNotificationType validates a NotificationType string value
func ValidateNotificationType(value string) error {
	switch models.NotificationType(value) {
	case models.NotificationSuccess, models.NotificationInfo, models.NotificationMilestone:
		return nil
	default:
		return fmt.Errorf("invalid notification type: %s (must be 'success', 'info', or 'milestone')", value)
	}
}
