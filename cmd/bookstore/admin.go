package main

import (
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tasks",
	}

	var req transport.SignupRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an Admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validation.Validate(&req); err != nil {
				return err
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := a.services(events.Nop{}, nil)
			if err != nil {
				return err
			}
			u, err := svc.auth.CreateAdmin(cmd.Context(), req)
			if err != nil {
				return err
			}
			cmd.Printf("admin %s created with id %d\n", u.Username, u.ID)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&req.Username, "username", "", "login name")
	f.StringVar(&req.Password, "password", "", "password")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	for _, name := range []string{"username", "password", "email", "first-name", "last-name"} {
		_ = create.MarkFlagRequired(name)
	}

	cmd.AddCommand(create)
	return cmd
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the elasticsearch book index from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			idx := a.index(cmd.Context())
			if idx == nil {
				return errNoIndex
			}
			svc, err := a.services(events.Nop{}, idx)
			if err != nil {
				return err
			}

			ctx := a.log.WithContext(cmd.Context())
			n, err := svc.books.Reindex(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("indexed %d books\n", n)
			return nil
		},
	}
}
