// Package main provides admin management utilities for CampusNest.
//
// Admin rights only change through this tool; the HTTP API never accepts
// an is_admin flag from a client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"campusnest/internal/config"
	"campusnest/internal/database"
	"campusnest/internal/repository"
	"campusnest/internal/service"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <email>\n", command)
			os.Exit(1)
		}
		setAdmin(ctx, users, os.Args[2], command == "promote")

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <email>   - Grant admin rights")
	fmt.Println("  go run ./cmd/admin demote <email>    - Revoke admin rights")
	fmt.Println("  go run ./cmd/admin list-admins       - List all admins")
}

func setAdmin(ctx context.Context, users *service.UserService, email string, isAdmin bool) {
	user, err := users.SetAdminByEmail(ctx, email, isAdmin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with email %s not found\n", email)
			os.Exit(1)
		}
		log.Fatalf("Failed to update admin flag: %v", err)
	}

	verb := "demoted"
	if isAdmin {
		verb = "promoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Email, user.ID)
}

func listAdmins(ctx context.Context, users *service.UserService) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
