package entity

import "fmt"

const (
	CredentialCompanyFile = "myobCompanyFileApi"
	CredentialOAuth2      = "myobOAuth2Api"
)

// CompanyFileCredentials sign in to a single AccountRight company file.
type CompanyFileCredentials struct {
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
}

func (c *CompanyFileCredentials) Validate() error {
	if c.User == "" {
		return fmt.Errorf("%s: user is required", CredentialCompanyFile)
	}
	return nil
}

// OAuth2Credentials are used for the cloud API.
type OAuth2Credentials struct {
	ClientId       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	AuthUrl        string `json:"auth_url"`
	AccessTokenUrl string `json:"access_token_url"`
	RedirectUrl    string `json:"redirect_url"`
	Scope          string `json:"scope"`
	RefreshToken   string `json:"refresh_token"`
	IncludeApiKey  bool   `json:"include_api_key"`
}

func (c *OAuth2Credentials) Validate() error {
	switch {
	case c.ClientId == "":
		return fmt.Errorf("%s: client_id is required", CredentialOAuth2)
	case c.ClientSecret == "":
		return fmt.Errorf("%s: client_secret is required", CredentialOAuth2)
	case c.AccessTokenUrl == "":
		return fmt.Errorf("%s: access_token_url is required", CredentialOAuth2)
	case c.RefreshToken == "":
		return fmt.Errorf("%s: refresh_token is required", CredentialOAuth2)
	}
	return nil
}
