// Command gen-token prints a session token accepted by the server, for
// scripting against the API without going through the login form.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"kanban-todo/config"
)

func main() {
	var (
		secret   = flag.String("secret", os.Getenv("AUTH_SECRET"), "signing secret (defaults to AUTH_SECRET)")
		username = flag.String("username", os.Getenv("AUTH_USERNAME"), "username claim (defaults to AUTH_USERNAME)")
		ttl      = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	if *username == "" {
		log.Fatal("username is required")
	}
	if *ttl <= 0 {
		log.Fatal("ttl must be positive")
	}
	if *secret == "" {
		log.Printf("no secret given; using the fallback secret")
		*secret = config.FallbackSecret
	}

	tok, err := signToken(*secret, *username, time.Now(), *ttl)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Print(tok)
}

func signToken(secret, username string, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
