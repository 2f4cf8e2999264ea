package steam

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	CommunityBaseURL = "https://steamcommunity.com"
	APIBaseURL       = "https://api.steampowered.com"
)

// Session drives authentication and mobile confirmations for one account.
// It owns the account's resty client; the Web client shares it so session
// cookies apply to inventory and trade requests as well.
type Session struct {
	creds *Credentials
	http  *resty.Client

	communityURL string
	apiURL       string

	steamID      string
	refreshToken string
	sessionID    string
	established  bool
}

// SessionOpts overrides the Steam endpoints, used by tests.
type SessionOpts struct {
	CommunityURL string
	APIURL       string
}

func NewSession(creds *Credentials, client *resty.Client, opts SessionOpts) *Session {
	s := &Session{
		creds:        creds,
		http:         client,
		communityURL: CommunityBaseURL,
		apiURL:       APIBaseURL,
		steamID:      creds.SteamID,
		refreshToken: creds.RefreshToken,
	}
	if opts.CommunityURL != "" {
		s.communityURL = opts.CommunityURL
	}
	if opts.APIURL != "" {
		s.apiURL = opts.APIURL
	}
	return s
}

// SteamID returns the 64-bit id of the signed-in account, or the cached id
// from the credentials before the first sign-in.
func (s *Session) SteamID() string { return s.steamID }

// SessionID returns the community sessionid cookie value for form requests.
func (s *Session) SessionID() string { return s.sessionID }

// EnsureSession makes sure the client holds valid community cookies. It
// prefers the cached refresh token and falls back to a credentials login.
// The returned string describes how the session was obtained and is only
// meant for debug logging.
func (s *Session) EnsureSession(ctx context.Context) (string, error) {
	if s.established {
		return "existing session", nil
	}

	if s.refreshToken != "" {
		if err := s.sessionFromRefreshToken(ctx); err == nil {
			s.established = true
			return "session restored from refresh token", nil
		}
	}

	if err := s.login(ctx); err != nil {
		return "", fmt.Errorf("could not log in: %w", err)
	}
	if err := s.sessionFromRefreshToken(ctx); err != nil {
		return "", fmt.Errorf("could not establish web session: %w", err)
	}

	s.established = true
	return "fresh credentials login", nil
}

// sessionFromRefreshToken trades the refresh token for an access token and
// installs the community cookies on the shared client.
func (s *Session) sessionFromRefreshToken(ctx context.Context) error {
	var result struct {
		Response struct {
			AccessToken string `json:"access_token"`
		} `json:"response"`
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"refresh_token": s.refreshToken,
			"steamid":       s.steamID,
		}).
		SetResult(&result).
		Post(s.apiURL + "/IAuthenticationService/GenerateAccessTokenForApp/v1/")
	if err != nil {
		return err
	}
	if res.IsError() || result.Response.AccessToken == "" {
		return fmt.Errorf("access token request failed (status: %d)", res.StatusCode())
	}

	s.sessionID = newSessionID()

	communityHost, err := url.Parse(s.communityURL)
	if err != nil {
		return err
	}

	s.http.SetCookies([]*http.Cookie{
		{
			Name:   "steamLoginSecure",
			Value:  s.steamID + "%7C%7C" + result.Response.AccessToken,
			Domain: communityHost.Hostname(),
			Path:   "/",
		},
		{
			Name:   "sessionid",
			Value:  s.sessionID,
			Domain: communityHost.Hostname(),
			Path:   "/",
		},
	})

	return nil
}

// login performs the credentials auth flow: fetch the RSA key, encrypt the
// password, begin the session, supply the Guard code and poll for tokens.
func (s *Session) login(ctx context.Context) error {
	encrypted, timestamp, err := s.encryptPassword(ctx)
	if err != nil {
		return err
	}

	var begin struct {
		Response struct {
			ClientID  string `json:"client_id"`
			RequestID string `json:"request_id"`
			SteamID   string `json:"steamid"`
		} `json:"response"`
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"account_name":         s.creds.Login,
			"encrypted_password":   encrypted,
			"encryption_timestamp": timestamp,
			"persistence":          "1",
			"website_id":           "Community",
		}).
		SetResult(&begin).
		Post(s.apiURL + "/IAuthenticationService/BeginAuthSessionViaCredentials/v1/")
	if err != nil {
		return err
	}
	if res.IsError() || begin.Response.ClientID == "" {
		return fmt.Errorf("auth session rejected (status: %d)", res.StatusCode())
	}

	if s.steamID == "" {
		s.steamID = begin.Response.SteamID
	}

	if s.creds.SharedSecret != "" {
		code, err := GenerateTwoFactorCode(s.creds.SharedSecret, time.Now().Unix())
		if err != nil {
			return err
		}

		res, err = s.http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"client_id": begin.Response.ClientID,
				"steamid":   begin.Response.SteamID,
				"code":      code,
				"code_type": "3", // k_EAuthSessionGuardType_DeviceCode
			}).
			Post(s.apiURL + "/IAuthenticationService/UpdateAuthSessionWithSteamGuardCode/v1/")
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("steam guard code rejected (status: %d)", res.StatusCode())
		}
	}

	var poll struct {
		Response struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"response"`
	}

	res, err = s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":  begin.Response.ClientID,
			"request_id": begin.Response.RequestID,
		}).
		SetResult(&poll).
		Post(s.apiURL + "/IAuthenticationService/PollAuthSessionStatus/v1/")
	if err != nil {
		return err
	}
	if res.IsError() || poll.Response.RefreshToken == "" {
		return fmt.Errorf("auth session not confirmed (status: %d)", res.StatusCode())
	}

	s.refreshToken = poll.Response.RefreshToken
	return nil
}

func (s *Session) encryptPassword(ctx context.Context) (encrypted, timestamp string, err error) {
	var keyResult struct {
		Response struct {
			Modulus   string `json:"publickey_mod"`
			Exponent  string `json:"publickey_exp"`
			Timestamp string `json:"timestamp"`
		} `json:"response"`
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("account_name", s.creds.Login).
		SetResult(&keyResult).
		Get(s.apiURL + "/IAuthenticationService/GetPasswordRSAPublicKey/v1/")
	if err != nil {
		return "", "", err
	}
	if res.IsError() || keyResult.Response.Modulus == "" {
		return "", "", fmt.Errorf("rsa key request failed (status: %d)", res.StatusCode())
	}

	modulus, ok := new(big.Int).SetString(keyResult.Response.Modulus, 16)
	if !ok {
		return "", "", fmt.Errorf("invalid rsa modulus")
	}
	exponent, err := strconv.ParseInt(keyResult.Response.Exponent, 16, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid rsa exponent: %w", err)
	}

	pub := &rsa.PublicKey{N: modulus, E: int(exponent)}
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(s.creds.Password))
	if err != nil {
		return "", "", fmt.Errorf("encrypting password: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), keyResult.Response.Timestamp, nil
}

// confirmation is one pending mobile confirmation.
type confirmation struct {
	ID        string `json:"id"`
	Nonce     string `json:"nonce"`
	CreatorID string `json:"creator_id"`
	Type      int    `json:"type"`
}

const confirmationTypeTrade = 2

// AcceptConfirmation approves the pending mobile confirmation created for
// the given trade offer id.
func (s *Session) AcceptConfirmation(ctx context.Context, offerID uint64) error {
	var list struct {
		Success       bool           `json:"success"`
		Confirmations []confirmation `json:"conf"`
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(s.confirmationParams("conf")).
		SetResult(&list).
		Get(s.communityURL + "/mobileconf/getlist")
	if err != nil {
		return err
	}
	if res.IsError() || !list.Success {
		return fmt.Errorf("could not fetch confirmations (status: %d)", res.StatusCode())
	}

	offer := strconv.FormatUint(offerID, 10)
	for _, conf := range list.Confirmations {
		if conf.Type != confirmationTypeTrade || conf.CreatorID != offer {
			continue
		}

		var op struct {
			Success bool `json:"success"`
		}

		params := s.confirmationParams("allow")
		params["op"] = "allow"
		params["cid"] = conf.ID
		params["ck"] = conf.Nonce

		res, err = s.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&op).
			Get(s.communityURL + "/mobileconf/ajaxop")
		if err != nil {
			return err
		}
		if res.IsError() || !op.Success {
			return fmt.Errorf("confirmation was not accepted (status: %d)", res.StatusCode())
		}

		return nil
	}

	return fmt.Errorf("no pending confirmation for trade offer %s", offer)
}

func (s *Session) confirmationParams(tag string) map[string]string {
	now := time.Now().Unix()

	// Key generation only fails on a malformed identity secret, which a
	// loaded credential can't have; an empty key fails server-side anyway.
	key, _ := GenerateConfirmationKey(s.creds.IdentitySecret, now, tag)

	return map[string]string{
		"p":   s.creds.DeviceID,
		"a":   s.steamID,
		"k":   key,
		"t":   strconv.FormatInt(now, 10),
		"m":   "react",
		"tag": tag,
	}
}

func newSessionID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
