// Package validation содержит функции валидации входных данных.
package validation

import (
	"regexp"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MinPasswordLength задаёт минимальную длину пароля.
const MinPasswordLength = 6

// OTPLength задаёт длину одноразового кода.
const OTPLength = 6

// IsValidEmail проверяет базовую корректность адреса электронной почты.
func IsValidEmail(email string) bool {
	if email == "" || len(email) > 255 {
		return false
	}
	return emailRe.MatchString(email)
}

// IsValidPassword проверяет, что пароль удовлетворяет минимальным требованиям.
func IsValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}

// IsValidOTP проверяет формат одноразового кода: ровно шесть цифр.
func IsValidOTP(otp string) bool {
	if len(otp) != OTPLength {
		return false
	}
	for _, ch := range otp {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}
