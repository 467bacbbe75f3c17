// Seed populates a development database with demo users and blasts.
// Not for production use.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/config"
	"github.com/blastline/panel-server-go/internal/database"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/repository"
	"github.com/blastline/panel-server-go/internal/util"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := repository.NewUserRepository(db.DB)
	blastRepo := repository.NewBlastRepository(db.DB)

	adminHash, err := util.HashPassword("admin-password")
	if err != nil {
		log.Fatal().Err(err).Msg("hash failed")
	}

	admin, err := seedUser(ctx, userRepo, "admin@blastline.local", adminHash, true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}
	log.Info().Str("userId", admin.ID).Msg("admin ready")

	for i := 1; i <= 3; i++ {
		email := fmt.Sprintf("demo-%s@blastline.local", uuid.NewString()[:8])
		hash, err := util.HashPassword("demo-password")
		if err != nil {
			log.Fatal().Err(err).Msg("hash failed")
		}

		user, err := seedUser(ctx, userRepo, email, hash, false)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed user")
		}

		scheduled := time.Now().Add(time.Duration(i) * 24 * time.Hour)
		_, err = blastRepo.Create(ctx, model.CreateBlastParams{
			UserID:       user.ID,
			Title:        fmt.Sprintf("Demo campaign %d", i),
			Message:      "Hello from the demo seed. This message is a placeholder.",
			TargetGroups: model.EncodeGroups([]string{"demo-group-a", "demo-group-b"}),
			ScheduledAt:  &scheduled,
			IntervalMins: 60 * i,
			Status:       model.BlastStatusDraft,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed blast")
		}

		log.Info().Str("userId", user.ID).Str("email", email).Msg("demo user ready")
	}

	log.Info().Msg("seed complete")
}

func seedUser(ctx context.Context, users repository.UserRepository, email, hash string, isAdmin bool) (*model.User, error) {
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	return users.Create(ctx, model.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	})
}
