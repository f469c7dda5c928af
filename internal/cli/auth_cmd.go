// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/auth"
)

// =============================================================================
// LOGIN / REGISTER
// =============================================================================

// HandleLogin signs in with an email and a hidden password prompt.
func HandleLogin(env *Env, args Args) error {
	email, err := askEmail(env, args)
	if err != nil {
		return err
	}
	password, err := env.Prompt.Password("密码: ")
	if err != nil {
		return err
	}

	session := env.session()
	if err := session.Login(env.Ctx, email, password); err != nil {
		return err
	}
	env.printf("%s 已登录: %s\n", SuccessStyle.Render("[OK]"), session.User().Email)
	return nil
}

// HandleRegister creates an account and signs in.
func HandleRegister(env *Env, args Args) error {
	email, err := askEmail(env, args)
	if err != nil {
		return err
	}
	password, err := env.Prompt.Password("密码: ")
	if err != nil {
		return err
	}
	confirm, err := env.Prompt.Password("确认密码: ")
	if err != nil {
		return err
	}

	session := env.session()
	if err := session.Register(env.Ctx, email, password, confirm); err != nil {
		return err
	}
	env.printf("%s 注册成功，已登录: %s\n", SuccessStyle.Render("[OK]"), session.User().Email)
	return nil
}

func askEmail(env *Env, args Args) (string, error) {
	if args.Email != "" {
		return args.Email, nil
	}
	email, err := env.Prompt.Line("邮箱: ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(email), nil
}

// HandleLogout forgets the stored token.
func HandleLogout(env *Env, args Args) error {
	if err := env.session().Logout(env.Ctx); err != nil {
		return err
	}
	env.status(args, "%s 已退出登录\n", SuccessStyle.Render("[OK]"))
	return nil
}

// =============================================================================
// WHOAMI
// =============================================================================

type whoamiData struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	IsActive  bool       `json:"is_active"`
	Server    string     `json:"server"`
	ExpiresAt *time.Time `json:"token_expires_at"`
}

// HandleWhoami shows the account behind the stored token.
func HandleWhoami(env *Env, args Args) error {
	return OutputJSON(env.Out, args.JSON, "whoami", func() (any, error) {
		if err := env.requireToken(); err != nil {
			return nil, err
		}
		user, err := env.Client.CurrentUser(env.Ctx)
		if err != nil {
			return nil, err
		}

		data := whoamiData{
			ID:       user.ID,
			Email:    user.Email,
			IsActive: user.IsActive,
			Server:   env.Client.BaseURL(),
		}
		if exp, ok := auth.TokenExpiry(env.Client.Token()); ok {
			data.ExpiresAt = &exp
		}
		if args.JSON {
			return data, nil
		}

		status := SuccessStyle.Render("已激活")
		if !user.IsActive {
			status = WarningStyle.Render("未激活")
		}
		env.printf("%s%s\n", RenderLabel("邮箱"), ValueStyle.Render(user.Email))
		env.printf("%s%s\n", RenderLabel("用户 ID"), ValueStyle.Render(user.ID))
		env.printf("%s%s\n", RenderLabel("状态"), status)
		env.printf("%s%s\n", RenderLabel("服务器"), ValueStyle.Render(data.Server))
		switch {
		case data.ExpiresAt == nil:
			env.printf("%s%s\n", RenderLabel("令牌到期"), DimStyle.Render("未知"))
		case auth.TokenExpired(env.Client.Token(), time.Now()):
			env.printf("%s%s\n", RenderLabel("令牌到期"), WarningStyle.Render("已过期"))
		default:
			env.printf("%s%s\n", RenderLabel("令牌到期"), ValueStyle.Render(data.ExpiresAt.Local().Format("2006-01-02 15:04")))
		}
		return data, nil
	})
}
