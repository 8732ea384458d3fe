package user

import (
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  Ann@Example.COM ": "ann@example.com",
		"a@b.com":            "a@b.com",
		"\tA@B.Com\n":        "a@b.com",
	}

	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.com", "ann.smith@example.co.uk", "  Upper@Case.Org  "}

	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", e, err)
		}
	}

	invalid := []string{"", "plainaddress", "a@b", "@b.com", "a @b.com", "a@b .com"}

	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Secret@123"); err != nil {
		t.Errorf("ValidatePassword = %v, want nil", err)
	}

	if err := ValidatePassword("short"); err == nil {
		t.Error("7-char password accepted")
	}

	// exactly the minimum
	if err := ValidatePassword(strings.Repeat("x", MinPasswordLen)); err != nil {
		t.Errorf("minimum-length password rejected: %v", err)
	}
}

func TestValidateFullName(t *testing.T) {
	if err := ValidateFullName("Ann A"); err != nil {
		t.Errorf("ValidateFullName = %v, want nil", err)
	}

	if err := ValidateFullName("A"); err == nil {
		t.Error("1-char name accepted")
	}

	if err := ValidateFullName(strings.Repeat("x", MaxFullNameLen+1)); err == nil {
		t.Error("101-char name accepted")
	}

	if err := ValidateFullName(strings.Repeat("x", MaxFullNameLen)); err != nil {
		t.Errorf("100-char name rejected: %v", err)
	}
}
