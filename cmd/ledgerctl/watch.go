package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/yungbote/agencyledger-backend/internal/app"
	"github.com/yungbote/agencyledger-backend/internal/realtime"
)

type watchCmd struct {
	org string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "stream ledger events from the event bus" }
func (*watchCmd) Usage() string {
	return `ledgerctl watch [-org <organization_id>]

  Subscribes to REDIS_CHANNEL and prints every totals-changed, obligation-deleted
  and reconcile-completed event as a JSON line until interrupted.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.org, "org", "", "Only print events of this organization.")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if a.Cfg.RedisAddr == "" {
		fmt.Fprintln(os.Stderr, "REDIS_ADDR is required to watch events")
		return subcommands.ExitFailure
	}

	enc := json.NewEncoder(os.Stdout)
	err = a.Bus.StartForwarder(ctx, func(ev realtime.Event) {
		if c.org != "" && ev.OrganizationID.String() != c.org {
			return
		}
		_ = enc.Encode(ev)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "subscribe: %v\n", err)
		return subcommands.ExitFailure
	}
	<-ctx.Done()
	return subcommands.ExitSuccess
}
