package requests

import "testing"

func TestValidateBirthDate(t *testing.T) {
	valid := []string{"01.01.1990", "1.1.1990", "29.02.2000", "31.12.2030", "15.06.1900"}
	for _, s := range valid {
		if !ValidateBirthDate(s) {
			t.Errorf("expected %q to be a valid birth date", s)
		}
	}

	invalid := []string{
		"",
		"32.01.1990",
		"29.02.1999",
		"01.13.1990",
		"01.01.1899",
		"01.01.2031",
		"1990-01-01",
		"01.01.90",
		"abc",
	}
	for _, s := range invalid {
		if ValidateBirthDate(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestValidateBirthTime(t *testing.T) {
	valid := []string{"14:30", "0:00", "23:59", " 09:05 "}
	for _, s := range valid {
		if !ValidateBirthTime(s) {
			t.Errorf("expected %q to be a valid birth time", s)
		}
	}

	invalid := []string{"24:00", "12:60", "12:5", "12.30", "noon", ""}
	for _, s := range invalid {
		if ValidateBirthTime(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestIsBirthTimeUnknown(t *testing.T) {
	unknown := []string{"не знаю", "Не Знаю", "неизвестно", "нет", "примерно", "-", "?", "", "  "}
	for _, s := range unknown {
		if !IsBirthTimeUnknown(s) {
			t.Errorf("expected %q to mean unknown time", s)
		}
	}

	if IsBirthTimeUnknown("14:30") {
		t.Error("a concrete time must not be treated as unknown")
	}
}

func TestValidateBirthData(t *testing.T) {
	ok := &BirthDataRequest{
		BirthDate:  "15.03.1990",
		BirthTime:  "14:30",
		BirthPlace: "Москва, Россия",
	}
	if err := ValidateBirthData(ok); err != nil {
		t.Errorf("expected complete data to pass, got %v", err)
	}

	unknownTime := &BirthDataRequest{
		BirthDate:  "15.03.1990",
		BirthTime:  "неизвестно",
		BirthPlace: "Москва",
	}
	if err := ValidateBirthData(unknownTime); err != nil {
		t.Errorf("expected unknown time marker to pass, got %v", err)
	}

	bad := []*BirthDataRequest{
		{BirthDate: "", BirthTime: "14:30", BirthPlace: "Москва"},
		{BirthDate: "32.01.1990", BirthTime: "14:30", BirthPlace: "Москва"},
		{BirthDate: "15.03.1990", BirthTime: "25:00", BirthPlace: "Москва"},
		{BirthDate: "15.03.1990", BirthTime: "14:30", BirthPlace: ""},
	}
	for i, req := range bad {
		if err := ValidateBirthData(req); err == nil {
			t.Errorf("case %d: expected validation to fail", i)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("user@example.com") {
		t.Error("expected a plain address to pass")
	}
	if !ValidateEmail("") {
		t.Error("empty email is allowed, contact is optional")
	}
	if ValidateEmail("not-an-email") {
		t.Error("expected a bare word to be rejected")
	}
}
