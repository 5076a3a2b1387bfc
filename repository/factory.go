package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
)

func New(ctx context.Context, cfg config.Database) (coursecart.Repository, error) {
	switch cfg.Type {
	case "firestore":
		log.Info().Str("project", cfg.Firestore.ProjectID).Msg("creating firestore repository")
		return newFirestoreRepository(ctx, cfg.Firestore)
	case "sqlite":
		log.Info().Str("path", cfg.SQLite.ConnectionString).Msg("creating sqlite repository")
		return newSQLiteRepository(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("invalid database type %q", cfg.Type)
	}
}
