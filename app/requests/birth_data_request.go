package requests

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/thedevsaddam/govalidator"
)

var (
	birthDateRegex = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	birthTimeRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// unknownTimeValues are the answers that mean "I don't know my birth time".
var unknownTimeValues = []string{"не знаю", "неизвестно", "нет", "примерно", "-", "?", ""}

// ValidateBirthDate checks a DD.MM.YYYY date with a real calendar day
// and a year between 1900 and 2030.
func ValidateBirthDate(text string) bool {
	match := birthDateRegex.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return false
	}

	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])

	if year < 1900 || year > 2030 {
		return false
	}

	// time.Date normalizes overflow (32.01 becomes 01.02), so compare back.
	dt := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return dt.Year() == year && dt.Month() == time.Month(month) && dt.Day() == day
}

// IsBirthTimeUnknown reports whether the user said the birth time is unknown.
func IsBirthTimeUnknown(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, v := range unknownTimeValues {
		if lowered == v {
			return true
		}
	}
	return false
}

// ValidateBirthTime checks an HH:MM time of day.
func ValidateBirthTime(text string) bool {
	match := birthTimeRegex.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return false
	}

	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// BirthDataRequest is the assembled survey result, checked as a whole
// before it is written to the store. The per-step checks already ran, but
// the state comes back from redis and may be stale.
type BirthDataRequest struct {
	BirthDate  string `json:"birth_date" valid:"birth_date"`
	BirthTime  string `json:"birth_time" valid:"birth_time"`
	BirthPlace string `json:"birth_place" valid:"birth_place"`
}

// ValidateBirthData validates the assembled survey result.
func ValidateBirthData(req *BirthDataRequest) error {
	rules := govalidator.MapData{
		"birth_date":  []string{"required"},
		"birth_place": []string{"required", "min:2", "max:120"},
	}

	messages := govalidator.MapData{
		"birth_date": []string{
			"required:дата рождения не заполнена",
		},
		"birth_place": []string{
			"required:место рождения не заполнено",
			"min:место рождения слишком короткое",
			"max:место рождения слишком длинное",
		},
	}

	if err := ValidateStruct(req, rules, messages); err != nil {
		return err
	}

	if !ValidateBirthDate(req.BirthDate) {
		return ValidationError{Errors: map[string][]string{
			"birth_date": {"дата рождения в неверном формате"},
		}}
	}
	if !IsBirthTimeUnknown(req.BirthTime) && !ValidateBirthTime(req.BirthTime) {
		return ValidationError{Errors: map[string][]string{
			"birth_time": {"время рождения в неверном формате"},
		}}
	}

	return nil
}

// ValidateEmail does a shape check only. An empty string passes so contact
// collection can be skipped.
func ValidateEmail(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	return emailRegex.MatchString(trimmed)
}
