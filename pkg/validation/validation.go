package validation

import (
	"fmt"
	"strings"
)

const (
	MinWorkers = 1
	MaxWorkers = 20

	MinRecordSeconds = 1
	MaxRecordSeconds = 600

	MinBirthYear = 1900
	MaxBirthYear = 2100
)

// Languages maps the supported foreign-language codes to their display names.
var Languages = map[string]string{
	"en-US": "English",
	"vi-VN": "Tiếng Việt",
	"th-TH": "ภาษาไทย",
	"km-KH": "ភាសាខ្មែរ",
}

func ValidateWorkerCount(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("worker count must be between %d and %d, got %d", MinWorkers, MaxWorkers, workers)
	}
	return nil
}

// ValidateID checks a backend resource ID before it is placed in a URL path.
func ValidateID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s ID cannot be empty", kind)
	}
	if strings.ContainsAny(id, "/?#") {
		return fmt.Errorf("invalid %s ID: %q", kind, id)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

func ValidateLanguageCode(code string, validCodes map[string]string) error {
	if _, ok := validCodes[code]; !ok {
		return fmt.Errorf("invalid language code: %s", code)
	}
	return nil
}

func ValidateMaxSeconds(seconds int) error {
	if seconds < MinRecordSeconds || seconds > MaxRecordSeconds {
		return fmt.Errorf("max recording length must be between %d and %d seconds, got %d", MinRecordSeconds, MaxRecordSeconds, seconds)
	}
	return nil
}

func ValidateBirthYear(year int) error {
	if year < MinBirthYear || year > MaxBirthYear {
		return fmt.Errorf("birth year must be between %d and %d, got %d", MinBirthYear, MaxBirthYear, year)
	}
	return nil
}
