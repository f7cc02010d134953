// Command main runs the database seeder for CampusNest.
package main

import (
	"context"
	"flag"
	"log"

	"campusnest/internal/config"
	"campusnest/internal/database"
	"campusnest/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	sellers := flag.Int("sellers", defaults.Sellers, "Number of sellers to create")
	buyers := flag.Int("buyers", defaults.Buyers, "Number of student buyers to create")
	listings := flag.Int("listings", defaults.ListingsPerSeller, "Listings per seller")
	chats := flag.Int("chats", defaults.ChatsPerListing, "Chats per listing")
	messages := flag.Int("messages", defaults.MessagesPerChat, "Messages per chat")
	rngSeed := flag.Int64("seed", defaults.Seed, "Random seed (same seed, same data)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		Sellers:           *sellers,
		Buyers:            *buyers,
		ListingsPerSeller: *listings,
		ChatsPerListing:   *chats,
		MessagesPerChat:   *messages,
		Seed:              *rngSeed,
	})

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if _, err := s.Run(ctx); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
