package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/calx-web/internal/catalog"
	"github.com/nulzo/calx-web/internal/config"
	"github.com/nulzo/calx-web/internal/store"
	"github.com/nulzo/calx-web/internal/store/model"
	"github.com/nulzo/calx-web/internal/store/sqlite"
	"go.uber.org/zap"
)

// seed fills the diagnostics database with synthetic fetch attempts so the
// dashboard's diagnostics view has something to show in development.
func main() {
	days := flag.Int("days", 7, "Spread attempts over this many days")
	perDay := flag.Int("per-day", 40, "Attempts per day")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	providers := catalog.NewRegistry(nil).Providers()
	now := time.Now().UTC()
	ctx := context.Background()

	err = repo.WithTx(ctx, func(tx store.Repository) error {
		for d := 0; d < *days; d++ {
			for i := 0; i < *perDay; i++ {
				p := providers[rand.Intn(len(providers))]
				attempt := syntheticAttempt(p.ID, now.AddDate(0, 0, -d).Add(-time.Duration(rand.Intn(86400))*time.Second))
				if err := tx.Attempts().Log(ctx, attempt); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seeded %d fetch attempts across %d providers into %s\n", *days*(*perDay), len(providers), cfg.Database.DSN)
}

func syntheticAttempt(providerID string, at time.Time) *model.FetchAttempt {
	a := &model.FetchAttempt{
		ID:         uuid.New().String(),
		ProviderID: providerID,
		LatencyMS:  int64(80 + rand.Intn(900)),
		CreatedAt:  at,
	}

	switch r := rand.Intn(100); {
	case r < 70:
		a.Outcome, a.StatusCode, a.ModelCount = model.OutcomeLive, 200, 3+rand.Intn(20)
	case r < 85:
		a.Outcome, a.StatusCode = model.OutcomeUpstream, 401
	case r < 95:
		a.Outcome, a.StatusCode = model.OutcomeEmpty, 200
	default:
		a.Outcome = model.OutcomeTransport
	}
	return a
}
