package steam

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Credentials is everything needed to drive one Steam account: login and
// password for a fresh sign-in, Guard secrets for the second factor, and an
// optional cached refresh token that skips the password flow entirely.
// Credentials are immutable once loaded; each account is owned by exactly
// one worker during a run.
type Credentials struct {
	Login          string
	Password       string
	SteamID        string
	RefreshToken   string
	SharedSecret   string
	IdentitySecret string
	DeviceID       string
}

// guardSecret is the maFile layout produced by Steam Desktop Authenticator
// and friends. Only the fields we need are declared.
type guardSecret struct {
	AccountName    string `json:"account_name"`
	SharedSecret   string `json:"shared_secret"`
	IdentitySecret string `json:"identity_secret"`
	DeviceID       string `json:"device_id"`
	Session        struct {
		SteamID json.Number `json:"SteamID"`
	} `json:"Session"`
}

// sessionFile is the .steamsession (version 2) file layout.
type sessionFile struct {
	Username        string `json:"Username"`
	Password        string `json:"Password"`
	SteamID         string `json:"SteamId"`
	SharedSecret    string `json:"SharedSecret"`
	IdentitySecret  string `json:"IdentitySecret"`
	WebRefreshToken string `json:"WebRefreshToken"`
	SchemaVersion   int    `json:"SchemaVersion"`
}

// LoadOptions names the credential sources. Any of them may be empty; the
// loader collects from whichever are configured.
type LoadOptions struct {
	AccountsFile string
	SecretsDir   string
	SessionsDir  string
	IgnoreFile   string
}

// LoadCredentials collects account credentials from .steamsession files and
// from an accounts file paired with a maFile secrets directory, then drops
// logins found in the ignore file. Unreadable or malformed entries are
// logged and skipped rather than failing the whole load.
func LoadCredentials(opts LoadOptions) ([]*Credentials, error) {
	var accounts []*Credentials

	fromSessions, err := loadFromSessionFiles(opts.SessionsDir)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts, fromSessions...)

	fromSecrets, err := loadFromSecrets(opts.AccountsFile, opts.SecretsDir)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts, fromSecrets...)

	accounts, err = dropIgnored(accounts, opts.IgnoreFile)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("steamSessions", len(fromSessions)).
		Int("secrets", len(fromSecrets)).
		Int("total", len(accounts)).
		Msg("accounts loaded")

	return accounts, nil
}

func loadFromSessionFiles(dir string) ([]*Credentials, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); err != nil {
		log.Warn().Str("dir", dir).Msg("steam sessions directory does not exist")
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.steamsession"))
	if err != nil {
		return nil, fmt.Errorf("listing steam sessions: %w", err)
	}

	var accounts []*Credentials
	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("could not read steam session file")
			continue
		}

		var sf sessionFile
		if err := json.Unmarshal(contents, &sf); err != nil || sf.Username == "" {
			log.Warn().Str("file", path).Msg("invalid steam session file, only version 2 files are supported")
			continue
		}

		accounts = append(accounts, &Credentials{
			Login:          sf.Username,
			Password:       sf.Password,
			SteamID:        sf.SteamID,
			RefreshToken:   sf.WebRefreshToken,
			SharedSecret:   sf.SharedSecret,
			IdentitySecret: sf.IdentitySecret,
			DeviceID:       DeviceID(sf.SteamID),
		})
	}

	return accounts, nil
}

func loadFromSecrets(accountsFile, secretsDir string) ([]*Credentials, error) {
	if accountsFile == "" || secretsDir == "" {
		return nil, nil
	}
	if _, err := os.Stat(accountsFile); err != nil {
		log.Warn().Str("file", accountsFile).Msg("accounts file does not exist")
		return nil, nil
	}
	if _, err := os.Stat(secretsDir); err != nil {
		log.Warn().Str("dir", secretsDir).Msg("secrets directory does not exist")
		return nil, nil
	}

	secrets, err := readSecretFiles(secretsDir)
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(accountsFile)
	if err != nil {
		return nil, fmt.Errorf("reading accounts file: %w", err)
	}

	var accounts []*Credentials
	for i, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		login, password, ok := strings.Cut(line, ":")
		if !ok {
			log.Warn().Int("line", i+1).Msg("invalid account format, expected login:password")
			continue
		}

		secret := findSecret(secrets, login)
		if secret == nil {
			log.Warn().Str("login", login).Msg("secret file not found")
			continue
		}

		steamID := secret.Session.SteamID.String()
		deviceID := secret.DeviceID
		if deviceID == "" && steamID != "" {
			deviceID = DeviceID(steamID)
		}

		accounts = append(accounts, &Credentials{
			Login:          login,
			Password:       password,
			SteamID:        steamID,
			SharedSecret:   secret.SharedSecret,
			IdentitySecret: secret.IdentitySecret,
			DeviceID:       deviceID,
		})
	}

	return accounts, nil
}

func readSecretFiles(dir string) ([]*guardSecret, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory: %w", err)
	}

	var secrets []*guardSecret
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		contents, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("could not read secret file")
			continue
		}

		var secret guardSecret
		if err := json.Unmarshal(contents, &secret); err != nil {
			log.Warn().Str("file", path).Msg("invalid secret file")
			continue
		}
		if secret.SharedSecret == "" || secret.IdentitySecret == "" {
			log.Warn().Str("file", path).Msg("secret file is missing shared_secret or identity_secret")
			continue
		}
		if secret.AccountName == "" {
			// Some exporters leave account_name blank; fall back to the
			// file name, which conventionally is the login.
			secret.AccountName = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}

		secrets = append(secrets, &secret)
	}

	return secrets, nil
}

func findSecret(secrets []*guardSecret, login string) *guardSecret {
	for _, secret := range secrets {
		if strings.EqualFold(secret.AccountName, login) {
			return secret
		}
	}
	return nil
}

func dropIgnored(accounts []*Credentials, ignoreFile string) ([]*Credentials, error) {
	if ignoreFile == "" {
		return accounts, nil
	}
	contents, err := os.ReadFile(ignoreFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("file", ignoreFile).Msg("ignore accounts file not found")
			return accounts, nil
		}
		return nil, fmt.Errorf("reading ignore accounts file: %w", err)
	}

	ignored := make(map[string]struct{})
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ignored[strings.ToLower(line)] = struct{}{}
		}
	}

	kept := accounts[:0]
	for _, account := range accounts {
		if _, skip := ignored[strings.ToLower(account.Login)]; !skip {
			kept = append(kept, account)
		}
	}

	return kept, nil
}
