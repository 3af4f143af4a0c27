package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // v7
		"123e4567-e89b-12d3-a456-426614174000", // v1
		"3F2504E0-4F89-41D3-9A0C-0305E82C3301", // uppercase
	}
	invalid := []string{
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",         // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",     // invalid hex
		"{0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b}",   // braces
		"urn:uuid:0188d0f2-7b8c-7b4a-8a2b-6b8b8b8", // urn prefix
		"",
	}
	for _, id := range valid {
		if !IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = true, want false", id)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2024-01-31", "2000-02-29"}
	invalid := []string{"2024-02-30", "2024/01/01", "31-01-2024", ""}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidDateTime(t *testing.T) {
	valid := []string{"2024-01-15T10:30:00Z", "2024-01-15T10:30:00+07:00", "2024-01-15T10:30:00.123Z"}
	invalid := []string{"2024-01-15", "2024-01-15 10:30:00", ""}
	for _, s := range valid {
		if _, ok := IsValidDateTime(s); !ok {
			t.Errorf("IsValidDateTime(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDateTime(s); ok {
			t.Errorf("IsValidDateTime(%q) = true, want false", s)
		}
	}
}

func TestIsValidTimezone(t *testing.T) {
	if !IsValidTimezone("UTC") {
		t.Error("IsValidTimezone(UTC) = false, want true")
	}
	for _, tz := range []string{"", "  ", "Mars/Olympus_Mons"} {
		if IsValidTimezone(tz) {
			t.Errorf("IsValidTimezone(%q) = true, want false", tz)
		}
	}
}

func TestIsValidStateCode(t *testing.T) {
	cases := map[string]bool{"CA": true, "NY": true, "ca": false, "CAL": false, "": false}
	for in, want := range cases {
		if got := IsValidStateCode(in); got != want {
			t.Errorf("IsValidStateCode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"weekly", "monthly"}
	if !IsInSlice("weekly", slice) {
		t.Error("IsInSlice(weekly) = false, want true")
	}
	if IsInSlice("daily", slice) {
		t.Error("IsInSlice(daily) = true, want false")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "period_start", Message: "is required"},
		{Field: "period_end", Message: "must not be before period_start"},
	}
	want := "period_start: is required; period_end: must not be before period_start"
	if got := errs.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "hourly_rate", Message: "must be positive"},
	}
	m := errs.ToMap()
	if m["hourly_rate"] != "must be positive" || len(m) != 1 {
		t.Errorf("ToMap() = %v", m)
	}
}
