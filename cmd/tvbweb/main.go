package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/nsiona/tvb-framework/internal/app"
	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/config"
	"github.com/nsiona/tvb-framework/internal/equations"
	"github.com/nsiona/tvb-framework/internal/fixtures"
	"github.com/nsiona/tvb-framework/internal/forms"
	"github.com/nsiona/tvb-framework/internal/store"
	"github.com/nsiona/tvb-framework/logging"
	"github.com/nsiona/tvb-framework/logging/storelog"
)

const version = "0.3.0"

var (
	configFile string
	outPath    string
	chartMin   float64
	chartMax   float64
	chartWidth int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tvbweb",
		Short: "web controller for brain network simulations",
		RunE:  runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the web server",
		RunE:  runServe,
	}

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "write the surface parameters form schema",
		RunE:  runSchema,
	}
	schemaCmd.Flags().StringVar(&outPath, "out", "", "path to write the JSON schema")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "store demo datatypes and a burst configuration",
		RunE:  runSeed,
	}

	equationsCmd := &cobra.Command{
		Use:   "equations [name]",
		Short: "list spatial equations or plot one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEquations,
	}
	equationsCmd.Flags().Float64Var(&chartMin, "min", 0, "lower bound of the plotted range")
	equationsCmd.Flags().Float64Var(&chartMax, "max", 100, "upper bound of the plotted range")
	equationsCmd.Flags().IntVar(&chartWidth, "width", 80, "plot width in columns")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(serveCmd, schemaCmd, seedCmd, equationsCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, cfg, nil)
}

func runSchema(cmd *cobra.Command, args []string) error {
	if outPath == "" {
		return fmt.Errorf("--out is required")
	}

	schema, err := forms.BuildSchema()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	router, closeSinkFiles, err := app.NewEventRouter(cfg)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		router.Close(closeCtx)
		closeSinkFiles()
	}()

	st, err := store.NewStore(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(st)

	ctx := cmd.Context()
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	conn, err := fixtures.CreateConnectivity(ctx, st, cfg.Project)
	if err != nil {
		return fmt.Errorf("seed connectivity: %w", err)
	}
	storelog.DatatypeStored(ctx, router,
		logging.EntityRef{ID: conn.GID, Kind: logging.EntityKindDatatype},
		storelog.DatatypePayload{Kind: "connectivity", Project: cfg.Project, Label: conn.Label}, nil)

	surf, err := fixtures.CreateSurface(ctx, st, cfg.Project)
	if err != nil {
		return fmt.Errorf("seed surface: %w", err)
	}
	storelog.DatatypeStored(ctx, router,
		logging.EntityRef{ID: surf.GID, Kind: logging.EntityKindDatatype},
		storelog.DatatypePayload{Kind: "surface", Project: cfg.Project, Label: surf.Label}, nil)

	demo := burst.NewConfiguration(cfg.Project)
	demo.Name = "demo burst"
	fixtures.PopulateBurst(demo, conn.GID, surf.GID)
	if err := st.SaveBurst(ctx, demo); err != nil {
		return fmt.Errorf("seed burst configuration: %w", err)
	}
	storelog.BurstSaved(ctx, router,
		logging.EntityRef{ID: demo.ID, Kind: logging.EntityKindBurst},
		storelog.BurstPayload{Project: cfg.Project, Status: string(demo.Status)}, nil)

	fmt.Printf("connectivity: %s\n", conn.GID)
	fmt.Printf("surface: %s\n", surf.GID)
	fmt.Printf("burst configuration: %s\n", demo.ID)
	if cfg.Store.Backend != "sqlite" {
		fmt.Printf("store backend %q is not persistent; seeded data is lost at exit\n", cfg.Store.Backend)
	}
	return nil
}

func runEquations(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, name := range equations.Names() {
			eq, err := equations.New(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-20s params: %v\n", name, eq.ParamNames())
		}
		return nil
	}

	eq, err := equations.New(args[0])
	if err != nil {
		return err
	}
	if chartMax <= chartMin {
		return fmt.Errorf("--max must be greater than --min")
	}

	xs, ys := eq.Sample(chartMin, chartMax, 200)
	_, ys, dropped := equations.Sanitize(xs, ys)

	graph := asciigraph.Plot(ys,
		asciigraph.Height(15),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(fmt.Sprintf("%s on [%g, %g]", eq.Name(), chartMin, chartMax)),
	)
	fmt.Println(graph)
	if dropped {
		fmt.Println("non-finite samples were dropped")
	}
	return nil
}
