package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/app"
	"github.com/yungbote/agencyledger-backend/internal/authz"
	"github.com/yungbote/agencyledger-backend/internal/services"
)

type tokenCmd struct {
	org  string
	user string
	role string
	ttl  time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "sign a bearer token for local testing" }
func (*tokenCmd) Usage() string {
	return `ledgerctl token -org <organization_id> [-user <user_id>] [-role owner|admin|manager|member|viewer] [-ttl 1h]

  Signs an HS256 token with JWT_SECRET_KEY. Intended for development; real
  tokens are issued by the identity provider.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.org, "org", "", "Organization id carried in the org claim.")
	f.StringVar(&c.user, "user", "", "User id carried in the sub claim (random when empty).")
	f.StringVar(&c.role, "role", authz.RoleOwner, "Role carried in the role claim.")
	f.DurationVar(&c.ttl, "ttl", time.Hour, "Token lifetime.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	orgID, err := uuid.Parse(c.org)
	if err != nil {
		fmt.Fprintln(os.Stderr, "-org must be a valid organization id")
		return subcommands.ExitUsageError
	}
	userID := uuid.New()
	if c.user != "" {
		if userID, err = uuid.Parse(c.user); err != nil {
			fmt.Fprintln(os.Stderr, "-user must be a valid id")
			return subcommands.ExitUsageError
		}
	}
	log, err := app.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)
	tokens := services.NewTokenService(log, cfg.JWTSecretKey, c.ttl)
	signed, err := tokens.Issue(authz.Principal{UserID: userID, OrganizationID: orgID, Role: c.role})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(signed)
	return subcommands.ExitSuccess
}
