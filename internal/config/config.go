package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ModeCompanyFile = "company_file"
	ModeOAuth2      = "oauth2"
)

type Config struct {
	Env    string `yaml:"env" env-default:"local" env-required:"true"`
	Listen struct {
		BindIP  string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string `yaml:"port" env-default:"8080"`
		ApiKey  string `yaml:"api_key" env:"LISTEN_API_KEY" env-default:""`
		Timeout int    `yaml:"timeout" env-default:"60"`
	} `yaml:"listen"`
	Myob struct {
		BaseUrl     string  `yaml:"base_url" env:"MYOB_BASE_URL" env-default:"https://api.myob.com/accountright/{companyFileGuid}"`
		Mode        string  `yaml:"mode" env:"MYOB_MODE" env-default:"company_file"`
		ApiVersion  string  `yaml:"api_version" env-default:"v2"`
		DefaultSku  string  `yaml:"default_sku" env-default:""`
		RateLimit   float64 `yaml:"rate_limit" env-default:"8"`
		Burst       int     `yaml:"burst" env-default:"8"`
		Timeout     int     `yaml:"timeout" env-default:"30"`
		MaxRetries  int     `yaml:"max_retries" env-default:"3"`
		CompanyFile struct {
			User     string `yaml:"user" env:"MYOB_CF_USER" env-default:"Administrator"`
			Password string `yaml:"password" env:"MYOB_CF_PASSWORD" env-default:""`
		} `yaml:"company_file"`
		OAuth2 struct {
			ClientId       string `yaml:"client_id" env:"MYOB_CLIENT_ID" env-default:""`
			ClientSecret   string `yaml:"client_secret" env:"MYOB_CLIENT_SECRET" env-default:""`
			AuthUrl        string `yaml:"auth_url" env-default:"https://secure.myob.com/oauth2/account/authorize"`
			AccessTokenUrl string `yaml:"access_token_url" env-default:"https://secure.myob.com/oauth2/v1/authorize"`
			RedirectUrl    string `yaml:"redirect_url" env-default:""`
			Scope          string `yaml:"scope" env-default:"CompanyFile"`
			RefreshToken   string `yaml:"refresh_token" env:"MYOB_REFRESH_TOKEN" env-default:""`
			IncludeApiKey  bool   `yaml:"include_api_key" env-default:"true"`
		} `yaml:"oauth2"`
	} `yaml:"myob"`
	SQL struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Driver   string `yaml:"driver" env-default:"mysql"`
		HostName string `yaml:"hostname" env-default:"localhost"`
		UserName string `yaml:"username" env-default:"root"`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:""`
		Port     string `yaml:"port" env-default:"3306"`
		Prefix   string `yaml:"prefix" env-default:""`
	} `yaml:"sql"`
	Mongo struct {
		Enabled     bool   `yaml:"enabled" env-default:"false"`
		Host        string `yaml:"host" env-default:"127.0.0.1"`
		Port        string `yaml:"port" env-default:"27017"`
		User        string `yaml:"user" env-default:""`
		Password    string `yaml:"password" env-default:""`
		Database    string `yaml:"database" env-default:"myob"`
		ExpiredDays int    `yaml:"expired_days" env-default:"90"`
	} `yaml:"mongo"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Addr     string `yaml:"addr" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
		TTL      int    `yaml:"ttl" env-default:"3600"`
	} `yaml:"redis"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BotName string `yaml:"bot_name" env-default:""`
		ApiKey  string `yaml:"api_key" env-default:""`
		AdminId string `yaml:"admin_id" env-default:""`
	} `yaml:"telegram"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env-default:"true"`
	} `yaml:"metrics"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
