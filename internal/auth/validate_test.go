// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		confirm   string
		wantField string
		wantMsg   string
	}{
		{"valid", "a@b.com", "secret1", "secret1", "", ""},
		{"mismatch", "a@b.com", "secret1", "secret2", "confirm", "两次输入的密码不一致"},
		{"too short", "a@b.com", "12345", "12345", "password", "密码长度至少为6位"},
		{"mismatch checked first", "a@b.com", "123", "456", "confirm", "两次输入的密码不一致"},
		{"six multibyte runes", "a@b.com", "密码密码密码", "密码密码密码", "", ""},
		{"empty email", "", "secret1", "secret1", "email", "请输入有效的邮箱地址"},
		{"no at", "ab.com", "secret1", "secret1", "email", "请输入有效的邮箱地址"},
		{"display name", "Bob <a@b.com>", "secret1", "secret1", "email", "请输入有效的邮箱地址"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRegister(tc.email, tc.password, tc.confirm)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "err = %v", err)
			assert.Equal(t, tc.wantField, vErr.Field)
			assert.Equal(t, tc.wantMsg, vErr.Error())
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, ValidateLogin("a@b.com", "x"))

	var vErr *ValidationError
	require.ErrorAs(t, ValidateLogin("a@b.com", ""), &vErr)
	assert.Equal(t, "password", vErr.Field)

	require.ErrorAs(t, ValidateLogin("   ", "x"), &vErr)
	assert.Equal(t, "email", vErr.Field)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  ｕｓｅｒ＠ｅｘａｍｐｌｅ.com "))
	assert.NoError(t, ValidateLogin("ｕｓｅｒ＠ｅｘａｍｐｌｅ.com", "x"))
}
