package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// errNotOK is returned after a failed Outcome has been printed, so the
// process exits non-zero without printing the message twice.
var errNotOK = errors.New("operation reported failure")

func (c *cli) registerCmd() *cobra.Command {
	return c.identityCmd("register <username>", "Create a dashboard user", func(ctx context.Context, u, p string) (shelter.Outcome, error) {
		return c.client.Register(ctx, u, p)
	})
}

func (c *cli) loginCmd() *cobra.Command {
	return c.identityCmd("login <username>", "Check a dashboard user's password", func(ctx context.Context, u, p string) (shelter.Outcome, error) {
		return c.client.Authenticate(ctx, u, p)
	})
}

func (c *cli) identityCmd(use, short string, op func(ctx context.Context, username, password string) (shelter.Outcome, error)) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.Wrap(err, "read password from stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			ctx, cancel := c.callContext(cmd)
			defer cancel()

			out, err := op(ctx, args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			if !out.OK {
				return errNotOK
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", `password, or "-" to read one line from stdin`)
	return cmd
}
