package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/account"
	"github.com/gmailagent/gmailagent/internal/gmail"
	"github.com/gmailagent/gmailagent/internal/outfmt"
)

type accountListResponse struct {
	outfmt.Envelope
	Accounts []account.Summary `json:"accounts"`
	Count    int               `json:"count"`
}

type accountAuthResponse struct {
	outfmt.Envelope
	Name  string `json:"name"`
	Email string `json:"email"`
}

type accountDefaultResponse struct {
	outfmt.Envelope
	DefaultAccount string `json:"default_account"`
}

type accountRemoveResponse struct {
	outfmt.Envelope
	Name    string `json:"name"`
	Removed bool   `json:"removed"`
}

func newAccountsCmd() *cobra.Command {
	var (
		authName    string
		defaultName string
		removeName  string
		list        bool
		check       bool
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and manage configured accounts",
		Long: `List configured accounts, add and authenticate new ones, pick the
default, or check whether the installation is ready.

Examples:
  gmailagent accounts
  gmailagent accounts --auth work
  gmailagent accounts --set-default work
  gmailagent accounts --remove old
  gmailagent accounts --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			switch {
			case check:
				return outfmt.WriteJSON(a.stdout, a.registry.CheckSetup())
			case defaultName != "":
				return a.setDefaultAccount(defaultName)
			case removeName != "":
				return a.removeAccount(removeName)
			case authName != "":
				return a.authAccount(cmd.Context(), authName)
			default:
				return a.listAccounts()
			}
		},
	}

	cmd.Flags().StringVar(&authName, "auth", "", "add the account if needed and run browser authentication")
	cmd.Flags().StringVar(&defaultName, "set-default", "", "set the default account")
	cmd.Flags().StringVar(&removeName, "remove", "", "remove the account from the config")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list configured accounts (the default action)")
	cmd.Flags().BoolVar(&check, "check", false, "print setup status as raw JSON")

	return cmd
}

func (a *app) listAccounts() error {
	accounts, err := a.registry.ListAll()
	if err != nil {
		return err
	}
	return a.print(accountListResponse{
		Envelope: outfmt.OK(""),
		Accounts: accounts,
		Count:    len(accounts),
	})
}

func (a *app) authAccount(ctx context.Context, name string) error {
	created, err := a.store.EnsureAccount(name)
	if err != nil {
		return &sessionError{account: name, err: err}
	}
	if created {
		a.out.Info(fmt.Sprintf("Account '%s' added to config.", name))
	}

	a.out.Info(fmt.Sprintf("Authenticating '%s'...", name))
	sess, err := gmail.NewSession(ctx, name, gmail.Deps{
		Store:       a.store,
		Registry:    a.registry,
		Credentials: a.credentials(true),
		Logger:      a.logger,
	})
	if err != nil {
		return &sessionError{account: name, err: err}
	}

	a.out.Success("Authenticated: " + sess.Account())
	return a.print(accountAuthResponse{
		Envelope: outfmt.OK(""),
		Name:     sess.Name(),
		Email:    sess.Email(),
	})
}

func (a *app) setDefaultAccount(name string) error {
	ok, err := a.store.SetDefaultAccount(name)
	if err != nil {
		return &sessionError{account: name, err: err}
	}
	if !ok {
		accounts, _ := a.registry.ListAll()
		known := make([]string, 0, len(accounts))
		for _, acct := range accounts {
			known = append(known, acct.Name)
		}
		return &sessionError{account: name, err: &account.UnknownAccountError{Requested: name, Known: known}}
	}

	a.out.Success(fmt.Sprintf("Default account set to '%s'.", name))
	return a.print(accountDefaultResponse{
		Envelope:       outfmt.OK(""),
		DefaultAccount: name,
	})
}

func (a *app) removeAccount(name string) error {
	removed, err := a.store.RemoveAccount(name)
	if err != nil {
		return &sessionError{account: name, err: err}
	}
	if removed {
		a.out.Success(fmt.Sprintf("Account '%s' removed.", name))
	} else {
		a.out.Warning(fmt.Sprintf("Account '%s' not found.", name))
	}
	return a.print(accountRemoveResponse{
		Envelope: outfmt.OK(""),
		Name:     name,
		Removed:  removed,
	})
}
