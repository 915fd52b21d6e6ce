package validation

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"valid", "user@example.com", true},
		{"valid with subdomain", "a.b@mail.example.org", true},
		{"empty", "", false},
		{"no at sign", "userexample.com", false},
		{"no domain dot", "user@example", false},
		{"spaces", "us er@example.com", false},
		{"double at", "u@s@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Fatalf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidPassword(t *testing.T) {
	if IsValidPassword("12345") {
		t.Fatalf("password shorter than %d characters must be rejected", MinPasswordLength)
	}
	if !IsValidPassword("123456") {
		t.Fatalf("password of %d characters must be accepted", MinPasswordLength)
	}
}

func TestIsValidOTP(t *testing.T) {
	tests := []struct {
		name string
		otp  string
		want bool
	}{
		{"valid", "042137", true},
		{"too short", "12345", false},
		{"too long", "1234567", false},
		{"letters", "12a456", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidOTP(tt.otp); got != tt.want {
				t.Fatalf("IsValidOTP(%q) = %v, want %v", tt.otp, got, tt.want)
			}
		})
	}
}
