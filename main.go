package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

var jwtSecret []byte // loaded from config (flag --jwt-secret or env LAPAK_JWT_SECRET)

func main() {
	// Auto-load ./.env if present (no external dependency) before viper reads
	// the environment
	loadDotEnv()
	cfg := ParseArgs()

	secret := cfg.JWTSecret
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./lapak migrate`
	// It runs AutoMigrate then exits. Useful for CI or manual DB setup.
	if pflag.Arg(0) == "migrate" {
		initDB(cfg)
		fmt.Println("migration completed")
		return
	}

	initDB(cfg)
	initImageStore(cfg)
	initListings()

	r := gin.Default()

	setupRoutes(r)

	r.Run(cfg.ServerAddr)
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
