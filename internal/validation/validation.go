// Package validation holds the pure field-level rules for scheduling inputs.
// Every rule is side-effect free and returns nil on success or an error whose
// message is stable enough for callers to key localized text on.
package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/example/clinic-scheduler/internal/scheduler"
)

const (
	minNameLength      = 2
	maxNameLength      = 100
	minSpecialtyLength = 2
	maxSpecialtyLength = 50
	minDocumentLength  = 5
	maxDocumentLength  = 20
	minPhoneLength     = 7
	maxPhoneLength     = 20
	maxEmailLength     = 100
	maxNotesLength     = 500

	minAge = 1
	maxAge = 150

	// Bookings are accepted at most this far ahead.
	maxHorizonYears = 2
)

// Operating window for appointment times, inclusive on both ends.
const (
	OpeningTime scheduler.TimeOfDay = 6 * 60
	ClosingTime scheduler.TimeOfDay = 22 * 60
)

var (
	errNameRequired  = errors.New("name is required")
	errNameLength    = errors.New("name must be between 2 and 100 characters")
	errNameCharset   = errors.New("name may only contain letters, spaces, hyphens and periods")
	errDocRequired   = errors.New("document is required")
	errDocFormat     = errors.New("document must be 5 to 20 digits")
	errAgeRange      = errors.New("age must be between 1 and 150")
	errPhoneRequired = errors.New("phone is required")
	errPhoneFormat   = errors.New("phone must be 7 to 20 characters of digits, spaces, hyphens, parentheses or plus")
	errEmailRequired = errors.New("email is required")
	errEmailInvalid  = errors.New("email is invalid")
	errSpecRequired  = errors.New("specialty is required")
	errSpecLength    = errors.New("specialty must be between 2 and 50 characters")
	errSpecCharset   = errors.New("specialty may only contain letters, spaces, hyphens and periods")
	errNotesTooLong  = errors.New("notes must not exceed 500 characters")
	errDateRequired  = errors.New("date is required")
	errDatePast      = errors.New("date must be today or later")
	errDateHorizon   = errors.New("date must be within 2 years")
	errTimeWindow    = errors.New("time must be between 06:00 and 22:00")
	errIDPositive    = errors.New("id must be a positive integer")
)

// Letters (including Spanish accented ones), spaces, hyphen and period. The
// whitelist doubles as the guard against markup and SQL metacharacters.
var nameCharset = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ\s\-\.]+$`)

var phoneCharset = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)

// ValidateName checks a person's display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errNameRequired
	}
	length := utf8.RuneCountInString(name)
	if length < minNameLength || length > maxNameLength {
		return errNameLength
	}
	if containsDigit(name) || !nameCharset.MatchString(name) {
		return errNameCharset
	}
	return nil
}

// ValidateDocument checks an identity document number: digits only, 5 to 20.
func ValidateDocument(document string) error {
	document = strings.TrimSpace(document)
	if document == "" {
		return errDocRequired
	}
	if len(document) < minDocumentLength || len(document) > maxDocumentLength {
		return errDocFormat
	}
	for _, r := range document {
		if !unicode.IsDigit(r) {
			return errDocFormat
		}
	}
	return nil
}

// ValidateAge checks a patient age.
func ValidateAge(age int) error {
	if age < minAge || age > maxAge {
		return errAgeRange
	}
	return nil
}

// ValidatePhone checks a contact phone number.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return errPhoneRequired
	}
	if len(phone) < minPhoneLength || len(phone) > maxPhoneLength {
		return errPhoneFormat
	}
	if !phoneCharset.MatchString(phone) {
		return errPhoneFormat
	}
	return nil
}

// ValidateEmail checks that the value parses as exactly one plain address.
// Addresses carrying a display name are rejected: the stored value must be
// the bare address itself.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errEmailRequired
	}
	if len(email) > maxEmailLength {
		return errEmailInvalid
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errEmailInvalid
	}
	return nil
}

// ValidateSpecialty checks a clinician specialty label.
func ValidateSpecialty(specialty string) error {
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return errSpecRequired
	}
	length := utf8.RuneCountInString(specialty)
	if length < minSpecialtyLength || length > maxSpecialtyLength {
		return errSpecLength
	}
	if containsDigit(specialty) || !nameCharset.MatchString(specialty) {
		return errSpecCharset
	}
	return nil
}

// ValidateNotes checks optional free-text notes. Empty notes always pass.
func ValidateNotes(notes string) error {
	if strings.TrimSpace(notes) == "" {
		return nil
	}
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return errNotesTooLong
	}
	return nil
}

// ValidateAppointmentDate checks that the calendar date is today or later and
// no more than two years ahead, both relative to the supplied reference time.
func ValidateAppointmentDate(date time.Time, now time.Time) error {
	if date.IsZero() {
		return errDateRequired
	}
	day := scheduler.DateOf(date)
	today := scheduler.DateOf(now)
	if day.Before(today) {
		return errDatePast
	}
	if day.After(today.AddDate(maxHorizonYears, 0, 0)) {
		return errDateHorizon
	}
	return nil
}

// ValidateAppointmentTime checks that the clock time falls inside the
// operating window, inclusive on both ends.
func ValidateAppointmentTime(clock scheduler.TimeOfDay) error {
	if clock < OpeningTime || clock > ClosingTime {
		return errTimeWindow
	}
	return nil
}

// ValidateID checks a storage-assigned identifier.
func ValidateID(id int64) error {
	if id <= 0 {
		return errIDPositive
	}
	return nil
}

// ParseDate parses a strict dd/MM/yyyy calendar date at UTC midnight.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	parsed, err := time.ParseInLocation("02/01/2006", value, time.UTC)
	if err != nil {
		return time.Time{}, errors.New("date must use the dd/mm/yyyy format")
	}
	return parsed, nil
}

func containsDigit(value string) bool {
	for _, r := range value {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
