package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func (c *ctl) registerCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and make it the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, email = strings.TrimSpace(username), strings.TrimSpace(email)
			if err := core.ValidateRegistration(username, email, password); err != nil {
				return emit(c, services.Session{}, core.Invalid(err), printSession)
			}
			s, err := c.app.Ledger.Users.Register(cmd.Context(), username, email, password)
			return emit(c, s, err, printSession)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address, unique per store")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 6 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *ctl) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and make the account the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Ledger.Users.Login(cmd.Context(), strings.TrimSpace(email), password)
			return emit(c, s, err, printSession)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *ctl) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u := c.app.Ledger.Users.CurrentUser(cmd.Context())
			if u == nil {
				return emit(c, core.User{}, errNotLoggedIn, printUser)
			}
			return emit(c, *u, nil, printUser)
		},
	}
}

func (c *ctl) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.emitDone("Logged out", c.app.Ledger.Users.Logout(cmd.Context()))
		},
	}
}

func printSession(w io.Writer, s services.Session) {
	fmt.Fprintf(w, "Logged in as %s <%s>\n", s.User.Username, s.User.Email)
	fmt.Fprintf(w, "User ID: %s\n", s.UserID)
	fmt.Fprintf(w, "Token:   %s\n", s.Token)
	fmt.Fprintf(w, "Expires: %s\n", s.ExpiresAt.Format("2006-01-02 15:04"))
}

func printUser(w io.Writer, u core.User) {
	fmt.Fprintf(w, "%s <%s>\n", u.Username, u.Email)
	fmt.Fprintf(w, "User ID: %s\n", u.ID)
	fmt.Fprintf(w, "Since:   %s\n", u.CreatedAt.Format("2006-01-02"))
}
