// Command devtoken prints a bearer token accepted by the local identity
// provider (IDENTITY_PROVIDER=local).
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/liveflow/donor-service/internal/auth"
	"github.com/liveflow/donor-service/internal/config"
)

func main() {
	email := flag.String("email", "", "email the token is issued for")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Identity.Provider != config.IdentityLocal {
		log.Fatalf("IDENTITY_PROVIDER is %q; tokens are only accepted by the local provider", cfg.Identity.Provider)
	}

	lifetime := cfg.Identity.TokenTTL()
	if *ttl > 0 {
		lifetime = *ttl
	}
	token, expiresAt, err := auth.NewTokenManager(cfg.Identity.JWTSecret, lifetime).GenerateToken(*email)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires %s", expiresAt.Format(time.RFC3339))
}
