package main

import (
	"context"
	"log"

	"smartattend/internal/config"
	"smartattend/internal/roster"
	"smartattend/internal/store"
)

type seedUser struct {
	roll     string
	name     string
	email    string
	password string
	role     string
}

var seedUsers = []seedUser{
	{"2301640130144", "Vishal Maurya", "vishal@gmail.com", "123456", roster.RoleStudent},
	{"2301640130143", "Virat Trivedi", "virat@gmail.com", "123456", roster.RoleStudent},
	{"2301640130145", "Vishesh Singh", "vishesh@gmail.com", "123456", roster.RoleStudent},
	{"2301640130085", "Parth Mishra", "parth@gmail.com", "123456", roster.RoleStudent},
	{"2301640130099", "Ram Ji", "ram@gmail.com", "123456", roster.RoleStudent},
	{"", "Teacher Admin", "teacher@school.com", "teacher123", roster.RoleTeacher},
}

// Seeds a fresh set of demo accounts. Existing users and attendance
// records are wiped first.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	if _, err := db.Client.ExecContext(ctx, `DELETE FROM attendance_records`); err != nil {
		log.Fatalf("clear attendance: %v", err)
	}
	if _, err := db.Client.ExecContext(ctx, `DELETE FROM users`); err != nil {
		log.Fatalf("clear users: %v", err)
	}

	svc := roster.NewService(roster.NewPGStore(db.Client))
	for _, su := range seedUsers {
		var roll *string
		if su.roll != "" {
			r := su.roll
			roll = &r
		}
		u, err := svc.Register(ctx, su.name, su.email, su.password, su.role, roll)
		if err != nil {
			log.Fatalf("seed %s failed: %v", su.email, err)
		}
		log.Printf("seeded %s (%s) id=%s", su.name, su.email, u.ID)
	}

	log.Println("database seeded")
}
