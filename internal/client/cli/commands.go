package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/userkeeper/internal/client/client"
	"github.com/dmitrijs2005/userkeeper/internal/common"
)

func newLoginCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and print an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.login(cmd.Context())
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
}

func newWhoAmICommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Check that a token is accepted by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.authenticate(cmd.Context())
			if err != nil {
				return describe(err)
			}
			text, err := a.api().WhoAmI(cmd.Context(), token)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, text)
			return nil
		},
	}
}

func newUsersCommand(a *App) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	users.AddCommand(newUsersListCommand(a), newUsersCreateCommand(a))
	return users
}

func newUsersListCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.authenticate(cmd.Context())
			if err != nil {
				return describe(err)
			}
			list, err := a.api().ListUsers(cmd.Context(), token)
			if err != nil {
				return describe(err)
			}

			fmt.Fprintf(a.out, "%-36s    %-20s    %-5s    %s\n", "ID", "USERNAME", "ADMIN", "FULL NAME")
			for _, u := range list {
				fullName := ""
				if u.FullName != nil {
					fullName = *u.FullName
				}
				fmt.Fprintf(a.out, "%-36s    %-20s    %-5t    %s\n", u.ID, u.Username, u.IsAdmin, fullName)
			}
			return nil
		},
	}
}

func newUsersCreateCommand(a *App) *cobra.Command {
	var (
		fullName string
		isAdmin  bool
	)
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.authenticate(cmd.Context())
			if err != nil {
				return describe(err)
			}

			pw, err := readNewPassword(a)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			n := client.NewUser{Username: args[0], IsAdmin: isAdmin, PlainPassword: string(pw)}
			if cmd.Flags().Changed("full-name") {
				n.FullName = &fullName
			}

			u, err := a.api().CreateUser(cmd.Context(), token, n)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "created user %s (id %s, admin %t)\n", u.Username, u.ID, u.IsAdmin)
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant admin rights")
	return cmd
}

// readNewPassword asks for the new user's password twice.
func readNewPassword(a *App) ([]byte, error) {
	first, err := GetPassword("New user's password", a.out)
	if err != nil {
		return nil, err
	}
	second, err := GetPassword("Repeat password", a.out)
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)

	if len(first) == 0 {
		return nil, errors.New("password must not be empty")
	}
	if !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
