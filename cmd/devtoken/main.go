// Command devtoken mints a bearer token for local development, standing in for
// the identity provider. It signs with the same JWT_SECRET the API verifies.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/workhive/backend/internal/auth"
	"github.com/workhive/backend/internal/config"
)

func main() {
	email := flag.String("email", "", "email claim of the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -email someone@example.com [-ttl 24h]")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	tok, err := auth.NewService(cfg.JWTSecret).IssueToken(*email, *ttl)
	if err != nil {
		slog.Error("issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
