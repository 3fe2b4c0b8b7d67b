package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taste-match/internal/database"

	"go.uber.org/zap"
)

var errNilDB = errors.New("seeder: nil db")

// Runner applies seeders in order and stops at the first failure. Seeders
// already applied in the run stay applied; each one is idempotent.
type Runner struct {
	Seeders []Seeder
	Logger  *zap.Logger
}

// Run returns the names of the seeders that completed.
func (r Runner) Run(ctx context.Context, db database.DB) ([]string, error) {
	if db == nil {
		return nil, errNilDB
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	done := make([]string, 0, len(r.Seeders))
	for i, s := range r.Seeders {
		if s == nil {
			log.Warn("skipping empty seeder slot", zap.Int("position", i))
			continue
		}
		started := time.Now()
		if err := s.Run(ctx, db); err != nil {
			log.Error("seeder failed",
				zap.String("seeder", s.Name()),
				zap.Strings("completed", done),
				zap.Error(err),
			)
			return done, fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		log.Info("seeder applied", zap.String("seeder", s.Name()), zap.Duration("took", time.Since(started)))
		done = append(done, s.Name())
	}
	return done, nil
}
