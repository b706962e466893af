package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gfauth/internal/auth"
	"gfauth/internal/batch"
	"gfauth/internal/captcha"
	"gfauth/internal/config"
	"gfauth/internal/identity"
	"gfauth/internal/logging"
	"gfauth/internal/transport"
)

// loginRunner wires one login: identity, transport, captcha solver and auth
// client. Identities are shared through the store so concurrent logins on
// the same file stay consistent.
type loginRunner struct {
	a     *app
	store *identity.Store
	save  bool
}

func newLoginRunner(a *app, save bool) *loginRunner {
	return &loginRunner{a: a, store: identity.NewStore(), save: save}
}

func (r *loginRunner) login(ctx context.Context, account batch.Account, proxyURL string, logger logging.Logger) (uuid.UUID, error) {
	cfg := r.a.cfg

	path := account.Identity
	if path == "" {
		path = cfg.Identity
	}
	manager, err := r.store.Manager(path)
	if err != nil {
		return uuid.Nil, err
	}

	transportCfg := cfg.Transport
	if proxyURL != "" {
		transportCfg.Proxy = proxyURL
	}
	client, err := transport.NewClient(transportCfg, logger, logging.TLSClient(r.a.logger.WithField("component", "tls")))
	if err != nil {
		return uuid.Nil, err
	}

	solver := captcha.New(client, cfg.Captcha, logging.WithPrefix(logger, "captcha"))
	token, err := auth.New(client, manager, solver, cfg.AuthOptions(), logger).
		Authenticate(ctx, account.Email, account.Password, cfg.Locale)

	if r.save {
		if saveErr := r.store.Save(path); saveErr != nil {
			logger.Log("Failed to save identity %s: %v", path, saveErr)
		}
	}
	return token, err
}

func newLoginCmd(a *app) *cobra.Command {
	var (
		account batch.Account
		locale  string
		proxy   string
		noSave  bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in once and print the session token",
		Long: `Log in once and print the session token.
Credentials default to GF_EMAIL and GF_PASSWORD (a .env file is honoured).`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if account.Email == "" {
				account.Email = config.Email()
			}
			if account.Password == "" {
				account.Password = config.Password()
			}
			if account.Email == "" || account.Password == "" {
				return errors.New("email and password are required (flags or GF_EMAIL/GF_PASSWORD)")
			}
			if locale != "" {
				a.cfg.Locale = locale
			}

			logger := a.component("auth")
			token, err := newLoginRunner(a, !noSave).login(cmd.Context(), account, proxy, logger)
			if err != nil {
				return fmt.Errorf("login %s: %w", account.Email, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&account.Email, "email", "e", "", "account email")
	flags.StringVarP(&account.Password, "password", "p", "", "account password")
	flags.StringVarP(&account.Identity, "identity", "i", "", "identity file (default from config)")
	flags.StringVar(&locale, "locale", "", "login locale (default pl-PL)")
	flags.StringVar(&proxy, "proxy", "", "proxy as ip:port[:user:pass] or URL")
	flags.BoolVar(&noSave, "no-save", false, "do not write the updated identity back")

	return cmd
}
