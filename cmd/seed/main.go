// seed carga el catálogo de materiales desde un CSV (exportado de la hoja de
// cálculo de la estación, UTF-8 o Shift_JIS) en la base configurada.
//
// Uso: go run ./cmd/seed [-encoding shift_jis] [-skip-existing] [-dry-run] materiales.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	encoding := flag.String("encoding", usecase.EncodingUTF8, "codificación del CSV: utf-8 | shift_jis")
	skipExisting := flag.Bool("skip-existing", true, "omitir materiales cuyo nombre ya existe")
	dryRun := flag.Bool("dry-run", false, "validar sin escribir")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [flags] archivo.csv")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed")

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if cfg.DB.AutoMigrate {
		if _, err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	materials := postgres.NewMaterialRepository(pool)
	movements := postgres.NewMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	mutator := inventory.NewRecordMovementUseCase(txRunner, log, nil, cfg.Inventory.DefaultActor)
	importUC := usecase.NewImportUseCase(usecase.NewMaterialUseCase(materials, movements, txRunner, mutator), materials)

	res, err := importUC.ImportCSV(ctx, f, usecase.ImportOptions{
		Encoding:     *encoding,
		SkipExisting: *skipExisting,
		DryRun:       *dryRun,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("importar CSV")
	}
	for _, rowErr := range res.Errors {
		log.Warn().Int("row", rowErr.Row).Str("error", rowErr.Err).Msg("fila omitida")
	}
	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Bool("dry_run", *dryRun).
		Msg("importación terminada")
}
