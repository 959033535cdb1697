package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/userkeeper/internal/client/client"
	"github.com/dmitrijs2005/userkeeper/internal/common"
)

const (
	EnvServer = "USERKEEPER_SERVER"
	EnvToken  = "USERKEEPER_TOKEN"

	defaultServer  = "http://127.0.0.1:8080"
	defaultTimeout = 10 * time.Second
)

type API interface {
	Login(ctx context.Context, username string, password []byte) (string, error)
	ListUsers(ctx context.Context, token string) ([]client.User, error)
	CreateUser(ctx context.Context, token string, n client.NewUser) (*client.User, error)
	WhoAmI(ctx context.Context, token string) (string, error)
}

// App holds the state shared by all commands of one invocation.
type App struct {
	server  string
	token   string
	timeout time.Duration

	reader *bufio.Reader
	out    io.Writer

	newAPI func(server string, timeout time.Duration) API
}

func newApp() *App {
	return &App{
		newAPI: func(server string, timeout time.Duration) API {
			return client.New(server, timeout)
		},
	}
}

func (a *App) api() API {
	return a.newAPI(a.server, a.timeout)
}

// login prompts for credentials and returns a fresh token.
func (a *App) login(ctx context.Context) (string, error) {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", err
	}
	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	return a.api().Login(ctx, username, pw)
}

// authenticate returns the --token value or logs in interactively.
func (a *App) authenticate(ctx context.Context) (string, error) {
	if a.token != "" {
		return a.token, nil
	}
	return a.login(ctx)
}

// describe turns client errors into messages for the terminal.
func describe(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("server: %w", err)
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("cannot reach server: %w", err)
	}
	return err
}

// NewRootCommand builds the command tree reading from in and writing to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	return newRootCommand(newApp(), in, out)
}

func newRootCommand(a *App, in io.Reader, out io.Writer) *cobra.Command {
	server := os.Getenv(EnvServer)
	if server == "" {
		server = defaultServer
	}

	root := &cobra.Command{
		Use:           "userkeeper-cli",
		Short:         "Admin tool for the userkeeper service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.reader = bufio.NewReader(cmd.InOrStdin())
			a.out = cmd.OutOrStdout()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&a.server, "server", server, "base URL of the userkeeper server (env "+EnvServer+")")
	root.PersistentFlags().StringVar(&a.token, "token", os.Getenv(EnvToken), "access token to use instead of logging in (env "+EnvToken+")")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultTimeout, "request timeout")

	root.AddCommand(newLoginCommand(a), newUsersCommand(a), newWhoAmICommand(a))
	return root
}

// Execute runs the CLI with the process arguments and stdio.
func Execute(ctx context.Context) error {
	root := NewRootCommand(os.Stdin, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}
