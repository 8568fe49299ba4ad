package main

import (
	"log"
	"log/slog"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr  string
	DBDSN       string
	AutoMigrate bool
	JWTSecret   string
	UploadBase  string
	S3          S3Config
	Redirect    RedirectConfig
}

type S3Config struct {
	Endpoint        string
	Bucket          string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

// RedirectConfig is the policy caller-supplied `next` targets are checked
// against. When a config file is in use it is reloaded on change without a
// restart.
type RedirectConfig struct {
	AllowedHosts []string
	RequireHTTPS bool
}

var (
	redirectMu     sync.RWMutex
	redirectPolicy RedirectConfig
)

func currentRedirectPolicy() RedirectConfig {
	redirectMu.RLock()
	defer redirectMu.RUnlock()
	return redirectPolicy
}

func setRedirectPolicy(p RedirectConfig) {
	redirectMu.Lock()
	defer redirectMu.Unlock()
	redirectPolicy = p
}

func ParseArgs() Config {
	// server config
	pflag.String("server-addr", "0.0.0.0:8081", "")
	pflag.String("config", "", "optional config file, watched for changes")

	// db config
	pflag.String("db-dsn", "", "")
	pflag.Bool("db-auto-migrate", true, "")

	// auth config
	pflag.String("jwt-secret", "", "")

	// image storage config (local disk unless an s3 bucket is set)
	pflag.String("upload-base", "uploads", "")
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-public-base-url", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")

	// redirect policy
	pflag.StringSlice("redirect-allowed-hosts", nil, "")
	pflag.Bool("redirect-require-https", false, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("LAPAK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("read config %s: %v", cfgFile, err)
		}
		// only the redirect policy is safe to change while running
		viper.OnConfigChange(func(e fsnotify.Event) {
			setRedirectPolicy(redirectConfigFromViper())
			slog.Info("redirect policy reloaded", slog.String("file", e.Name))
		})
		viper.WatchConfig()
	}

	setRedirectPolicy(redirectConfigFromViper())

	return Config{
		ServerAddr:  viper.GetString("server-addr"),
		DBDSN:       viper.GetString("db-dsn"),
		AutoMigrate: viper.GetBool("db-auto-migrate"),
		JWTSecret:   viper.GetString("jwt-secret"),
		UploadBase:  viper.GetString("upload-base"),
		S3: S3Config{
			Endpoint:        viper.GetString("s3-endpoint"),
			Bucket:          viper.GetString("s3-bucket"),
			PublicBaseURL:   viper.GetString("s3-public-base-url"),
			AccessKeyID:     viper.GetString("s3-access-key-id"),
			SecretAccessKey: viper.GetString("s3-secret-access-key"),
		},
		Redirect: redirectConfigFromViper(),
	}
}

func redirectConfigFromViper() RedirectConfig {
	return RedirectConfig{
		AllowedHosts: viper.GetStringSlice("redirect-allowed-hosts"),
		RequireHTTPS: viper.GetBool("redirect-require-https"),
	}
}
