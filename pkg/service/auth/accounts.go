package auth

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/crypto/bcrypt"
)

// DefaultRole is assigned to accounts that do not declare one
const DefaultRole = "staff"

type accountsFile struct {
	Accounts []model.Account `toml:"accounts"`
}

// LoadAccounts parses a TOML document of [[accounts]] tables
func LoadAccounts(r io.Reader) ([]model.Account, error) {
	var f accountsFile
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&f); err != nil {
		return nil, goerr.Wrap(err, "failed to decode accounts")
	}

	seen := make(map[string]struct{}, len(f.Accounts))
	for i := range f.Accounts {
		a := &f.Accounts[i]
		a.Username = strings.TrimSpace(a.Username)
		if a.Username == "" {
			return nil, goerr.New("account username is required", goerr.V("index", i))
		}
		if _, err := bcrypt.Cost([]byte(a.PasswordHash)); err != nil {
			return nil, goerr.Wrap(err, "account password_hash is not a bcrypt hash", goerr.V("username", a.Username))
		}
		if _, dup := seen[a.Username]; dup {
			return nil, goerr.New("duplicate account", goerr.V("username", a.Username))
		}
		seen[a.Username] = struct{}{}
		if a.Role == "" {
			a.Role = DefaultRole
		}
	}
	return f.Accounts, nil
}

// LoadAccountsFile reads accounts from a TOML file
func LoadAccountsFile(ctx context.Context, path string) ([]model.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open accounts file", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	accounts, err := LoadAccounts(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load accounts file", goerr.V("path", path))
	}
	return accounts, nil
}

// Authenticator verifies passwords against bcrypt hashes held in memory
type Authenticator struct {
	accounts map[string]model.Account
	// dummyHash is compared for unknown users so both failure paths cost
	// the same
	dummyHash []byte
}

var _ interfaces.Authenticator = &Authenticator{}

func NewAuthenticator(accounts []model.Account) *Authenticator {
	m := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		m[a.Username] = a
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("hrmonitor-dummy"), bcrypt.DefaultCost)
	return &Authenticator{accounts: m, dummyHash: dummy}
}

func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*model.Principal, error) {
	account, ok := a.accounts[username]
	hash := a.dummyHash
	if ok {
		hash = []byte(account.PasswordHash)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		return nil, goerr.Wrap(model.ErrUnauthorized, "invalid username or password", goerr.V("username", username))
	}

	return &model.Principal{
		Username: account.Username,
		Role:     account.Role,
	}, nil
}
