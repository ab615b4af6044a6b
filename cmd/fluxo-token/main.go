// Command fluxo-token issues a bearer token for local development,
// signed with the same AUTH_JWT_SECRET the API server verifies against.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"fluxo/internal/auth"
	"fluxo/internal/cli"
	"fluxo/internal/config"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	if len(os.Args) < 2 {
		log.Fatalf("usage: fluxo-token <user-id> [ttl]")
	}
	userID := os.Args[1]

	ttl := 24 * time.Hour
	if len(os.Args) > 2 {
		d, err := time.ParseDuration(os.Args[2])
		if err != nil || d <= 0 {
			log.Fatalf("invalid ttl %q", os.Args[2])
		}
		ttl = d
	}

	if cfg.AuthJWTSecret == "" {
		log.Fatalf("set AUTH_JWT_SECRET")
	}

	token, err := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTAudience).Sign(userID, ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Fprintln(os.Stderr, "Token for", userID, "expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	fmt.Println(token)
}
