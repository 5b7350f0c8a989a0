package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"rentory/internal/auth"
	"rentory/pkg/config"
	"rentory/pkg/model"
	"rentory/pkg/sanitizer"
)

const JobName = "create-admin"

func main() {
	_ = godotenv.Load()

	username := flag.String("username", os.Getenv("ADMIN_USERNAME"), "admin username")
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email address")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: createadmin -username <name> -email <addr> -password <secret>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	repo := auth.NewMongoUserRepository(cfg)

	normalizedEmail := sanitizer.NormalizeEmail(*email)
	normalizedName := sanitizer.TrimAndNormalize(*username)

	existing, err := repo.FindByEmailOrUsername(ctx, normalizedEmail, normalizedName)
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		cfg.Log.Fatal("Failed to check for existing user", "error", err)
	}
	if existing != nil {
		cfg.Log.Info("User already exists, nothing to do", "username", existing.Username)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.BcryptCost)
	if err != nil {
		cfg.Log.Fatal("Failed to hash password", "error", err)
	}

	user := &model.User{
		Username:     normalizedName,
		Email:        normalizedEmail,
		PasswordHash: string(hash),
	}
	if err := repo.Create(ctx, user); err != nil {
		cfg.Log.Fatal("Failed to create admin user", "error", err)
	}

	cfg.Log.Info("Admin user created", "id", user.ID.Hex(), "username", user.Username)
}
