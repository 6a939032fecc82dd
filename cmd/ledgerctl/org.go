package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/app"
	types "github.com/yungbote/agencyledger-backend/internal/domain/finance"
	"github.com/yungbote/agencyledger-backend/internal/pkg/dbctx"
)

type orgCmd struct {
	name     string
	currency string
}

func (*orgCmd) Name() string     { return "org" }
func (*orgCmd) Synopsis() string { return "create an organization row" }
func (*orgCmd) Usage() string {
	return `ledgerctl org -name <name> [-currency <ISO-4217>]

  Inserts a minimal organization (tenant) carrying its currency and prints
  its id. Provisioning beyond this row is handled elsewhere.
`
}

func (c *orgCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Organization display name.")
	f.StringVar(&c.currency, "currency", "USD", "ISO-4217 currency code used for every amount of the organization.")
}

func (c *orgCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.name) == "" {
		fmt.Fprintln(os.Stderr, "-name is required")
		return subcommands.ExitUsageError
	}
	a, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	org := &types.Organization{ID: uuid.New(), Name: strings.TrimSpace(c.name), Currency: c.currency}
	if err := a.Repos.Organization.Create(dbctx.Context{Ctx: ctx}, org); err != nil {
		fmt.Fprintf(os.Stderr, "create organization: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s\t%s\t%s\n", org.ID, org.Currency, org.Name)
	return subcommands.ExitSuccess
}
