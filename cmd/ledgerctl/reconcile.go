package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/app"
	"github.com/yungbote/agencyledger-backend/internal/authz"
	"github.com/yungbote/agencyledger-backend/internal/pkg/ctxutil"
)

// operatorID identifies ledgerctl as the acting user in logs and gate decisions.
var operatorID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("agencyledger/ledgerctl"))

type reconcileCmd struct {
	org string
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "recompute every stored total of an organization" }
func (*reconcileCmd) Usage() string {
	return `ledgerctl reconcile -org <organization_id>

  Recomputes obligation paid amounts and statuses, then assignment and project
  totals, from the ledger entries. Prints the repair report as JSON. Safe to run
  against a live database.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.org, "org", "", "Organization id to reconcile.")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	orgID, err := uuid.Parse(c.org)
	if err != nil || orgID == uuid.Nil {
		fmt.Fprintln(os.Stderr, "-org must be a valid organization id")
		return subcommands.ExitUsageError
	}
	a, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx = ctxutil.WithPrincipal(ctx, authz.Principal{
		UserID:         operatorID,
		OrganizationID: orgID,
		Role:           authz.RoleOwner,
	})
	report, err := a.Services.Reconcile.ReconcileAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		return subcommands.ExitFailure
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
