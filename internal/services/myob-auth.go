package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"

	"myobclient/entity"
	"myobclient/internal/config"

	"golang.org/x/oauth2"
)

const (
	headerVersion = "x-myobapi-version"
	headerCfToken = "x-myobapi-cftoken"
	headerApiKey  = "x-myobapi-key"
)

// Authenticator attaches credential headers to MYOB requests.
type Authenticator interface {
	Headers(ctx context.Context) (http.Header, error)
	// Invalidate drops any cached access token; the next Headers call fetches a fresh one.
	Invalidate()
	Name() string
}

func NewAuthenticator(conf *config.Config, httpClient *http.Client) (Authenticator, error) {
	cf := &entity.CompanyFileCredentials{
		User:     conf.Myob.CompanyFile.User,
		Password: conf.Myob.CompanyFile.Password,
	}

	switch conf.Myob.Mode {
	case config.ModeCompanyFile, "":
		return NewCompanyFileAuth(cf)
	case config.ModeOAuth2:
		o := conf.Myob.OAuth2
		creds := &entity.OAuth2Credentials{
			ClientId:       o.ClientId,
			ClientSecret:   o.ClientSecret,
			AuthUrl:        o.AuthUrl,
			AccessTokenUrl: o.AccessTokenUrl,
			RedirectUrl:    o.RedirectUrl,
			Scope:          o.Scope,
			RefreshToken:   o.RefreshToken,
			IncludeApiKey:  o.IncludeApiKey,
		}
		// company file sign-in is optional for the cloud API
		if cf.User == "" {
			cf = nil
		}
		return NewCloudAuth(creds, cf, httpClient)
	default:
		return nil, fmt.Errorf("unknown myob mode: %q", conf.Myob.Mode)
	}
}

func companyFileToken(c *entity.CompanyFileCredentials) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", c.User, c.Password)))
}

// CompanyFileAuth is the local AccountRight API scheme: a company file token only.
type CompanyFileAuth struct {
	creds *entity.CompanyFileCredentials
}

func NewCompanyFileAuth(creds *entity.CompanyFileCredentials) (*CompanyFileAuth, error) {
	if creds == nil {
		return nil, fmt.Errorf("company file credentials are required")
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &CompanyFileAuth{creds: creds}, nil
}

func (a *CompanyFileAuth) Headers(_ context.Context) (http.Header, error) {
	h := make(http.Header)
	h.Set(headerCfToken, companyFileToken(a.creds))
	return h, nil
}

func (a *CompanyFileAuth) Invalidate() {}

func (a *CompanyFileAuth) Name() string {
	return entity.CredentialCompanyFile
}

// CloudAuth is the MYOB cloud scheme: OAuth2 bearer token, API key header and,
// when configured, the company file token.
type CloudAuth struct {
	creds       *entity.OAuth2Credentials
	companyFile *entity.CompanyFileCredentials
	oauth       *oauth2.Config
	httpClient  *http.Client

	mu   sync.Mutex
	last *oauth2.Token
}

func NewCloudAuth(creds *entity.OAuth2Credentials, companyFile *entity.CompanyFileCredentials, httpClient *http.Client) (*CloudAuth, error) {
	if creds == nil {
		return nil, fmt.Errorf("oauth2 credentials are required")
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if companyFile != nil {
		if err := companyFile.Validate(); err != nil {
			return nil, err
		}
	}

	var scopes []string
	if creds.Scope != "" {
		scopes = []string{creds.Scope}
	}

	a := &CloudAuth{
		creds:       creds,
		companyFile: companyFile,
		httpClient:  httpClient,
		oauth: &oauth2.Config{
			ClientID:     creds.ClientId,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectUrl,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   creds.AuthUrl,
				TokenURL:  creds.AccessTokenUrl,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
	a.last = &oauth2.Token{RefreshToken: creds.RefreshToken}
	return a, nil
}

// token returns the cached access token or refreshes it within ctx.
func (a *CloudAuth) token(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last.Valid() {
		return a.last, nil
	}
	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}
	token, err := a.oauth.TokenSource(ctx, a.last).Token()
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		token.RefreshToken = a.last.RefreshToken
	}
	a.last = token
	return token, nil
}

func (a *CloudAuth) Headers(ctx context.Context) (http.Header, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("oauth2 token: %w", err)
	}

	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token.AccessToken)
	if a.creds.IncludeApiKey {
		h.Set(headerApiKey, a.creds.ClientId)
	}
	if a.companyFile != nil {
		h.Set(headerCfToken, companyFileToken(a.companyFile))
	}
	return h, nil
}

// Invalidate drops the access token and keeps the latest refresh token; MYOB rotates them.
func (a *CloudAuth) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()

	refresh := a.creds.RefreshToken
	if a.last != nil && a.last.RefreshToken != "" {
		refresh = a.last.RefreshToken
	}
	a.last = &oauth2.Token{RefreshToken: refresh}
}

func (a *CloudAuth) Name() string {
	return entity.CredentialOAuth2
}

// AuthCodeURL returns the consent URL used to obtain the first refresh token.
func (a *CloudAuth) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}
