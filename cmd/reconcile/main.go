// reconcile recalcula stock_balances desde stock_movements y corrige las llaves con diferencia.
//
// Uso:
//
//	go run ./cmd/reconcile -all
//	go run ./cmd/reconcile -product P1 -warehouse W1 [-batch B1]
//
// Sale con código 2 si alguna llave tenía diferencia, 1 ante error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	all := flag.Bool("all", false, "reconciliar todas las llaves del ledger")
	product := flag.String("product", "", "ID de producto")
	warehouse := flag.String("warehouse", "", "ID de bodega")
	batch := flag.String("batch", "", "ID de lote (opcional)")
	flag.Parse()

	if !*all && (*product == "" || *warehouse == "") {
		fmt.Fprintln(os.Stderr, "indique -all o -product y -warehouse")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	core := inventory.NewCore(
		postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout()),
		postgres.Repos(pool),
		inventory.WithLogger(log),
	)

	var results []inventory.ReconcileResult
	if *all {
		results, err = core.Balances().ReconcileAll(ctx)
	} else {
		var r *inventory.ReconcileResult
		r, err = core.Balances().Reconcile(ctx, entity.StockKey{ProductID: *product, WarehouseID: *warehouse, BatchID: *batch})
		if r != nil {
			results = append(results, *r)
		}
	}

	drifted := 0
	for _, r := range results {
		if r.Drift.IsZero() {
			continue
		}
		drifted++
		fmt.Printf("%s\tanterior=%s\trecalculado=%s\tdiferencia=%s\n",
			r.Key.String(), r.Previous, r.Recomputed, r.Drift)
	}
	fmt.Printf("llaves revisadas: %d, corregidas: %d\n", len(results), drifted)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Reconciliar: %v\n", err)
		os.Exit(1)
	}
	if drifted > 0 {
		os.Exit(2)
	}
}
