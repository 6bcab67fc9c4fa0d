// Command main fills the database with development data.
package main

import (
	"context"
	"flag"
	"log"

	"hearth/internal/config"
	"hearth/internal/database"
	"hearth/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numCommunities := flag.Int("communities", 5, "Number of communities to create")
	postsPer := flag.Int("posts", 8, "Posts per community")
	commentsPer := flag.Int("comments", 4, "Comments per post")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	fast := flag.Bool("fast", false, "Skip bcrypt; seeded accounts cannot log in")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d communities, %d posts each, clean=%v\n",
		*numUsers, *numCommunities, *postsPer, *shouldClean)

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

	sum, err := seed.Run(context.Background(), db, seed.Options{
		Host:              cfg.LocalHostname,
		Users:             *numUsers,
		Communities:       *numCommunities,
		PostsPerCommunity: *postsPer,
		CommentsPerPost:   *commentsPer,
		Seed:              *seedValue,
		SkipBcrypt:        *fast,
		Clean:             *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d communities, %d posts, %d comments, %d likes\n",
		sum.Users, sum.Communities, sum.Posts, sum.Comments, sum.Likes)
	if !*fast {
		log.Printf("All seeded users have the password: %s\n", seed.DefaultPassword)
	}
}
