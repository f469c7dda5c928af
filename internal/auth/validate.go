// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Validation messages shown inline on the auth forms.
const (
	msgInvalidEmail     = "请输入有效的邮箱地址"
	msgPasswordRequired = "请输入密码"
	msgPasswordMismatch = "两次输入的密码不一致"
	msgPasswordTooShort = "密码长度至少为6位"
)

// ValidationError is a client-side form error. It is raised before any
// network call is made.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// NormalizeEmail folds compatibility characters (full-width letters and @)
// and trims surrounding space.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(norm.NFKC.String(email))
}

// ValidateLogin checks the login form.
func ValidateLogin(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: msgPasswordRequired}
	}
	return nil
}

// ValidateRegister checks the registration form. The confirmation is
// compared before the length rule.
func ValidateRegister(email, password, confirm string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password != confirm {
		return &ValidationError{Field: "confirm", Message: msgPasswordMismatch}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: msgPasswordTooShort}
	}
	return nil
}

func validateEmail(email string) error {
	email = NormalizeEmail(email)
	invalid := &ValidationError{Field: "email", Message: msgInvalidEmail}
	if email == "" {
		return invalid
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return invalid
	}
	return nil
}
