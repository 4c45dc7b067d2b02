package configuration

import (
	"fmt"
	"os"
	"strconv"

	"tiktok-autoposter/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App       App       `json:"app"`
	OAuth     OAuth     `json:"oauth"`
	Accounts  Accounts  `json:"accounts"`
	Generator Generator `json:"generator"`
	Scheduler Scheduler `json:"scheduler"`
	Logger    Logger    `json:"logger"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	DomainName  string `json:"domainName"`
	LandingPage string `json:"landingPage"`
}

// OAuth holds third-party platform OAuth client credentials
type OAuth struct {
	TikTok OAuthClient `json:"tiktok"`
}

type OAuthClient struct {
	ClientKey    string `json:"clientKey"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

// Accounts points at the directory of per-account JSON files.
type Accounts struct {
	Dir string `json:"dir"`
}

// Generator configures the video generation backend and polling cadence.
type Generator struct {
	Host                string `json:"host"`
	StorageDir          string `json:"storageDir"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds"`
	TimeoutMinutes      int    `json:"timeoutMinutes"`
}

// Scheduler controls the delay between posting runs.
type Scheduler struct {
	IntervalSeconds int `json:"intervalSeconds"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadConfig()
	initApp(&C)
	initOAuth(&C)
	initPipeline(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; env-only setups are fine
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	// Prefer APP_SECRET_KEY from environment; overrides config file when provided
	if v := os.Getenv("APP_SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	if v := os.Getenv("APP_DOMAIN_NAME"); v != "" {
		C.App.DomainName = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 5000
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 5000
	}
	if C.App.LandingPage == "" {
		C.App.LandingPage = "web/landing-page"
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; provide APP_SECRET_KEY via environment.")
	}
}

func initOAuth(C *Config) {
	if v := os.Getenv("OAUTH_TIKTOK_CLIENT_KEY"); v != "" {
		C.OAuth.TikTok.ClientKey = v
	}
	if v := os.Getenv("OAUTH_TIKTOK_CLIENT_SECRET"); v != "" {
		C.OAuth.TikTok.ClientSecret = v
	}
	// TikTok requires the registered redirect URI verbatim, trailing slash included
	if C.OAuth.TikTok.RedirectURI == "" && C.App.DomainName != "" {
		C.OAuth.TikTok.RedirectURI = fmt.Sprintf("https://%s/oauth/tiktok/callback/", C.App.DomainName)
	}
	if C.OAuth.TikTok.ClientKey == "" || C.OAuth.TikTok.ClientSecret == "" {
		logger.GetLogger().Warn("TikTok OAuth client credentials not set; authorization flow will fail.")
	}
}

func initPipeline(C *Config) {
	if v := os.Getenv("ACCOUNTS_DIR"); v != "" {
		C.Accounts.Dir = v
	}
	if C.Accounts.Dir == "" {
		C.Accounts.Dir = "/mnt/accounts"
	}
	if v := os.Getenv("GENERATOR_HOST"); v != "" {
		C.Generator.Host = v
	}
	if C.Generator.Host == "" {
		C.Generator.Host = "http://api:8080"
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		C.Generator.StorageDir = v
	}
	if C.Generator.StorageDir == "" {
		C.Generator.StorageDir = "/mnt/storage"
	}
	if C.Generator.PollIntervalSeconds == 0 {
		C.Generator.PollIntervalSeconds = 30
	}
	if C.Generator.TimeoutMinutes == 0 {
		C.Generator.TimeoutMinutes = 30
	}
	if C.Scheduler.IntervalSeconds == 0 {
		C.Scheduler.IntervalSeconds = 21600
	}
}
