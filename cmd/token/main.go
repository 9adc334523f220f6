// Command token mints an access token for a user of the booking API.
// Tokens are normally issued by the auth service; this is for local
// development and smoke tests.
//
//	go run ./cmd/token -user 42
//	go run ./cmd/token -user 1 -role ADMIN -ttl 1h -lookup=false
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/coworking-reservation/internal/config"
	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/model"
	"github.com/iliyamo/coworking-reservation/internal/repository"
	"github.com/iliyamo/coworking-reservation/internal/utils"
)

func main() {
	userID := flag.Uint64("user", 0, "user id (token subject)")
	role := flag.String("role", model.RoleUser, "role claim, USER or ADMIN")
	ttl := flag.Duration("ttl", 15*time.Minute, "token lifetime")
	lookup := flag.Bool("lookup", true, "read the role from the users table")
	flag.Parse()

	if *userID == 0 {
		flag.Usage()
		os.Exit(2)
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if *lookup {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := database.Open(ctx, database.Options{
			User:     cfg.DBUser,
			Password: cfg.DBPass,
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Name:     cfg.DBName,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		u, err := repository.NewUserRepo(db).GetByID(ctx, *userID)
		if err != nil {
			log.Fatalf("user %d: %v", *userID, err)
		}
		*role = u.Role
	}

	tok, err := utils.NewAccessToken(cfg.JWTSecret, *userID, *role, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "role=%s expires=%s\n", *role, tok.Exp.Format(time.RFC3339))
}
