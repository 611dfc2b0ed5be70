// Command lead-opc-backfill flags historic leads whose capture medium shows
// they came through OPC field staff, so they report as OPC leads.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"opc_crm_backend/internal/audit"
	"opc_crm_backend/internal/domain"
	"opc_crm_backend/internal/lifecycle"
	"opc_crm_backend/internal/store"
	"opc_crm_backend/internal/store/postgres"
	"opc_crm_backend/platform/config"
	"opc_crm_backend/platform/db"
	"opc_crm_backend/platform/logger"
)

// opcMedia lists the capture media that imply an OPC capture.
var opcMedia = []string{
	"Campo (Centros Comerciales)",
	"Campo",
	"Centros Comerciales",
	"Centro Comercial",
	"CC",
	"OPC",
	"Personal OPC",
}

const backfillNote = "Marked as OPC lead from capture medium."

func main() {
	dryRun := flag.Bool("dry-run", false, "report matching leads without updating them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead OPC backfill", "dryRun", *dryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	engine := lifecycle.NewEngine(audit.NewLedger())
	n, err := backfill(ctx, postgres.New(pool), engine, *dryRun)
	if err != nil {
		log.Error("backfill failed", "error", err)
		os.Exit(1)
	}
	log.Info("lead OPC backfill complete", "leads", n, "dryRun", *dryRun)
}

// backfill marks every non-OPC lead captured through an OPC medium and returns
// how many matched. All updates commit together.
func backfill(ctx context.Context, st store.Store, engine *lifecycle.Engine, dryRun bool) (int, error) {
	var count int
	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		leads, err := tx.ListLeadsByMedium(ctx, opcMedia, true)
		if err != nil {
			return err
		}
		count = len(leads)
		if dryRun {
			return nil
		}
		for _, lead := range leads {
			after := lead
			after.IsOPCLead = true
			// Classification is unchanged, so no visit can complete here.
			if _, err := engine.UpdateLead(ctx, tx, domain.SystemActor(), lead, after, backfillNote); err != nil {
				return err
			}
		}
		return nil
	})
	return count, err
}
