package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notesync/internal/identity"
	"github.com/dukerupert/notesync/internal/model"
)

var (
	authEmail    string
	authPassword string
	authConfirm  string
)

func printIdentity(cmd *cobra.Command, a *app, id model.Identity) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, uid %s)\n", a.engine.DisplayName(), id.State, id.UID)
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and switch to it",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		if err := identity.ValidatePasswordConfirmation(authPassword, authConfirm); err != nil {
			return err
		}
		id, err := a.engine.SignUp(ctx, authEmail, authPassword)
		if err != nil {
			return err
		}
		printIdentity(cmd, a, id)
		return nil
	}),
}

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in to an existing account",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		id, err := a.engine.SignIn(ctx, authEmail, authPassword)
		if err != nil {
			return err
		}
		printIdentity(cmd, a, id)
		return nil
	}),
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Attach an email and password to the anonymous account, keeping its notes",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		if err := identity.ValidatePasswordConfirmation(authPassword, authConfirm); err != nil {
			return err
		}
		id, err := a.engine.LinkAccount(ctx, authEmail, authPassword)
		if err != nil {
			return err
		}
		printIdentity(cmd, a, id)
		return nil
	}),
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and continue with a fresh anonymous account",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		id, err := a.engine.SignOut(ctx)
		if err != nil {
			return err
		}
		printIdentity(cmd, a, id)
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the active identity",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		printIdentity(cmd, a, a.engine.Identity())
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, signinCmd, linkCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "Account password")
		c.MarkFlagRequired("email")
		c.MarkFlagRequired("password")
	}
	signupCmd.Flags().StringVar(&authConfirm, "confirm", "", "Repeat the password")
	linkCmd.Flags().StringVar(&authConfirm, "confirm", "", "Repeat the password")
	signupCmd.MarkFlagRequired("confirm")
	linkCmd.MarkFlagRequired("confirm")

	rootCmd.AddCommand(signupCmd, signinCmd, linkCmd, signoutCmd, whoamiCmd)
}
