package config

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/service/auth"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Accounts holds the path of the staff accounts file
type Accounts struct {
	path string
}

func (x *Accounts) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "accounts-file",
			Usage:       "TOML file with staff accounts and bcrypt password hashes",
			Category:    "Authentication",
			Sources:     cli.EnvVars("HRMONITOR_ACCOUNTS_FILE"),
			Destination: &x.path,
		},
	}
}

// Configure loads the accounts file. Without one, login is disabled and
// nil is returned.
func (x *Accounts) Configure(ctx context.Context) (interfaces.Authenticator, error) {
	if x.path == "" {
		logging.Default().Warn("accounts-file is not set, login is disabled")
		return nil, nil
	}

	accounts, err := auth.LoadAccountsFile(ctx, x.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure authenticator")
	}
	logging.Default().Info("Staff accounts loaded", "path", x.path, "count", len(accounts))
	return auth.NewAuthenticator(accounts), nil
}
