package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the application-wide configuration. It is set once by LoadConfig.
var Conf *Config

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	AppName  string
	Build    string

	SecretKey        []byte
	FrontendBaseURL  string
	DefaultFromEmail mail.Address

	RollbarToken   string
	LocalStatePath string

	Backend struct {
		URL     string
		AnonKey string
	}

	Server struct {
		Host                string
		Addr                string
		ShutdownTimeout     time.Duration
		VerifyRedirectDelay time.Duration
	}
}

// LoadConfig loads configuration from defaults, an optional dotenv file and the
// environment. It always returns a Config; the error (if any) is a
// *ConfigurationError listing required settings that are missing.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Virtual Campus")
	v.SetDefault("secretKey", "x1u&gq8)ewb$+57=dz&ouch2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("localStatePath", filepath.Join(".campus", "state.json"))
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("verifyRedirectDelay", 2*time.Second)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		Env:             env,
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		SecretKey:       []byte(v.GetString("secretKey")),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		RollbarToken:   v.GetString("rollbarToken"),
		LocalStatePath: v.GetString("localStatePath"),
	}
	conf.Backend.URL = strings.TrimRight(v.GetString("backendURL"), "/")
	conf.Backend.AnonKey = v.GetString("backendAnonKey")
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Server.ShutdownTimeout = v.GetDuration("shutdownTimeout")
	conf.Server.VerifyRedirectDelay = v.GetDuration("verifyRedirectDelay")

	Conf = conf
	return conf, conf.validate()
}

// validate checks required settings. The hosted backend endpoint and key have no
// sane defaults; without them the whole application is inoperable.
func (c *Config) validate() error {
	var missing []string
	if c.Backend.URL == "" {
		missing = append(missing, "BACKEND_URL")
	}
	if c.Backend.AnonKey == "" {
		missing = append(missing, "BACKEND_ANON_KEY")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
