package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/example/clinic-scheduler/internal/scheduler"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "plain", input: "María García", valid: true},
		{name: "accented and hyphenated", input: "José Ñuñez-Peña", valid: true},
		{name: "abbreviated", input: "J. Pérez", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "single rune", input: "A", valid: false},
		{name: "digits", input: "Maria2", valid: false},
		{name: "markup", input: "<script>", valid: false},
		{name: "quote", input: "O'Brien", valid: false},
		{name: "too long", input: strings.Repeat("a", 101), valid: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateName(tc.input)
			if tc.valid && err != nil {
				t.Fatalf("expected %q to pass, got %v", tc.input, err)
			}
			if !tc.valid && err == nil {
				t.Fatalf("expected %q to fail", tc.input)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		valid bool
	}{
		{input: "12345", valid: true},
		{input: "12345678901234567890", valid: true},
		{input: "1234", valid: false},
		{input: "123456789012345678901", valid: false},
		{input: "12a45", valid: false},
		{input: "", valid: false},
	}

	for _, tc := range cases {
		err := ValidateDocument(tc.input)
		if tc.valid && err != nil {
			t.Errorf("ValidateDocument(%q): unexpected error %v", tc.input, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ValidateDocument(%q): expected error", tc.input)
		}
	}
}

func TestValidateAge(t *testing.T) {
	t.Parallel()

	for _, age := range []int{1, 42, 150} {
		if err := ValidateAge(age); err != nil {
			t.Errorf("ValidateAge(%d): unexpected error %v", age, err)
		}
	}
	for _, age := range []int{0, -3, 151} {
		if err := ValidateAge(age); err == nil {
			t.Errorf("ValidateAge(%d): expected error", age)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		valid bool
	}{
		{input: "3001234567", valid: true},
		{input: "+57 (300) 123-4567", valid: true},
		{input: "123456", valid: false},
		{input: "300123x567", valid: false},
		{input: "", valid: false},
	}

	for _, tc := range cases {
		err := ValidatePhone(tc.input)
		if tc.valid && err != nil {
			t.Errorf("ValidatePhone(%q): unexpected error %v", tc.input, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ValidatePhone(%q): expected error", tc.input)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		valid bool
	}{
		{input: "ana@clinica.com", valid: true},
		{input: "ana+citas@clinica.com.co", valid: true},
		{input: "Ana <ana@clinica.com>", valid: false},
		{input: "not-an-email", valid: false},
		{input: "", valid: false},
		{input: strings.Repeat("a", 95) + "@x.com", valid: false},
	}

	for _, tc := range cases {
		err := ValidateEmail(tc.input)
		if tc.valid && err != nil {
			t.Errorf("ValidateEmail(%q): unexpected error %v", tc.input, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ValidateEmail(%q): expected error", tc.input)
		}
	}
}

func TestValidateSpecialty(t *testing.T) {
	t.Parallel()

	if err := ValidateSpecialty("Cardiología"); err != nil {
		t.Fatalf("expected specialty to pass, got %v", err)
	}
	if err := ValidateSpecialty(strings.Repeat("a", 51)); err == nil {
		t.Fatal("expected overlong specialty to fail")
	}
	if err := ValidateSpecialty("Cirugía 2"); err == nil {
		t.Fatal("expected specialty with digits to fail")
	}
}

func TestValidateNotes(t *testing.T) {
	t.Parallel()

	if err := ValidateNotes(""); err != nil {
		t.Fatalf("empty notes must pass, got %v", err)
	}
	if err := ValidateNotes(strings.Repeat("n", 500)); err != nil {
		t.Fatalf("500-character notes must pass, got %v", err)
	}
	if err := ValidateNotes(strings.Repeat("n", 501)); err == nil {
		t.Fatal("expected 501-character notes to fail")
	}
}

func TestValidateAppointmentDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		date  time.Time
		valid bool
	}{
		{name: "today", date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "tomorrow", date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "two years ahead", date: time.Date(2028, 8, 31, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "yesterday", date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), valid: false},
		{name: "beyond horizon", date: time.Date(2028, 9, 1, 0, 0, 0, 0, time.UTC), valid: false},
		{name: "three years", date: time.Date(2029, 8, 31, 0, 0, 0, 0, time.UTC), valid: false},
		{name: "zero", date: time.Time{}, valid: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateAppointmentDate(tc.date, now)
			if tc.valid && err != nil {
				t.Fatalf("expected pass, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected failure")
			}
		})
	}
}

func TestValidateAppointmentTime(t *testing.T) {
	t.Parallel()

	mustTime := func(value string) scheduler.TimeOfDay {
		clock, err := scheduler.ParseTimeOfDay(value)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", value, err)
		}
		return clock
	}

	for _, value := range []string{"06:00", "10:30", "22:00"} {
		if err := ValidateAppointmentTime(mustTime(value)); err != nil {
			t.Errorf("expected %s inside window, got %v", value, err)
		}
	}
	for _, value := range []string{"05:59", "05:30", "22:01", "23:00"} {
		if err := ValidateAppointmentTime(mustTime(value)); err == nil {
			t.Errorf("expected %s outside window", value)
		}
	}
}

func TestValidateID(t *testing.T) {
	t.Parallel()

	if err := ValidateID(1); err != nil {
		t.Fatalf("expected positive id to pass, got %v", err)
	}
	for _, id := range []int64{0, -7} {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%d): expected error", id)
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := ParseDate("01/09/2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseDate = %v, want %v", got, want)
	}

	for _, input := range []string{"2026-09-01", "31/02/2026", "", "mañana"} {
		if _, err := ParseDate(input); err == nil {
			t.Errorf("ParseDate(%q): expected error", input)
		}
	}
}
