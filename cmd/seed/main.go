// Command seed runs the database seeder for Homestash.
package main

import (
	"flag"
	"log"

	"homestash/internal/config"
	"homestash/internal/database"
	"homestash/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 5, "Number of demo users to create")
	numItems := flag.Int("items", 100, "Number of demo items to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Printf("Seeding: %d users, %d items, clean=%v\n", *numUsers, *numItems, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumItems:    *numItems,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
