package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"parcel-portal/internal/config"
	"parcel-portal/internal/db"
	"parcel-portal/internal/geo"
	"parcel-portal/internal/inventory"
	"parcel-portal/internal/lots"
	"parcel-portal/pkg/logger"
)

var log = logger.Must(logger.New())

func main() {
	defer log.Sync()

	// Sub-commands
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	os.Args = os.Args[1:] // Shift args for flag parsing

	switch cmd {
	case "measure":
		measureRegistry()
	case "reconcile":
		reconcileDryRun()
	case "project":
		projectPoint()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tools <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  measure    Precompute sides, area, perimeter and centroid for a geometry registry")
	fmt.Println("  reconcile  Merge the catalog with an inventory snapshot and print the report")
	fmt.Println("  project    Convert a point between UTM and WGS84")
}

func measureRegistry() {
	in := flag.String("in", "data/geometries.json", "Input geometry registry")
	out := flag.String("out", "data/geometries-enriched.json", "Output registry with measurements")
	places := flag.Int("places", 2, "Decimal places kept in the measurements")
	flag.Parse()

	registry, err := geo.LoadRegistry(*in)
	if err != nil {
		log.Fatal("failed to load registry", zap.Error(err))
	}

	log.Info("measuring lots", zap.Int("count", registry.Len()))
	enriched, report := geo.EnrichRegistry(registry, int32(*places))
	for _, code := range report.Skipped {
		log.Warn("skipped lot without a polygon", zap.String("code", code))
	}

	if err := enriched.Save(*out); err != nil {
		log.Fatal("failed to save registry", zap.Error(err))
	}
	log.Info("measurements complete",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", len(report.Skipped)),
		zap.String("output", *out),
	)
}

func reconcileDryRun() {
	envFile := flag.String("env", "", "Path to .env file")
	snapshotFile := flag.String("snapshot", "", "JSON array of ERP records (default: latest stored snapshot)")
	listLots := flag.Bool("lots", false, "Print the merged lots instead of the report")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	provider, err := lots.Open(cfg, logger.Named(log, "lots"))
	if err != nil {
		log.Fatal("failed to load lots", zap.Error(err))
	}

	snap, err := loadSnapshot(cfg, *snapshotFile)
	if err != nil {
		log.Fatal("failed to load snapshot", zap.Error(err))
	}
	provider.Refresh(snap)

	var v any = provider.Stats(lots.Filter{})
	if *listLots {
		v = provider.All()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal("failed to write output", zap.Error(err))
	}
}

func loadSnapshot(cfg *config.Config, path string) (inventory.Snapshot, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return inventory.Snapshot{}, err
		}
		var records []inventory.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return inventory.Snapshot{}, fmt.Errorf("failed to decode records: %w", err)
		}
		return inventory.NewSnapshot(records, time.Now())
	}

	database, err := db.New(cfg.Data.DBPath)
	if err != nil {
		return inventory.Snapshot{}, err
	}
	defer database.Close()

	snap, err := database.LatestSnapshot()
	if errors.Is(err, db.ErrNotFound) {
		log.Warn("no stored snapshot, reconciling the catalog alone")
		return inventory.Snapshot{}, nil
	}
	return snap, err
}

func projectPoint() {
	zone := flag.Int("zone", 18, "UTM zone")
	south := flag.Bool("south", true, "Southern hemisphere")
	inverse := flag.Bool("inverse", false, "Input is lon lat; output UTM easting northing")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Println("Usage: tools project [-zone N] [-south] [-inverse] <x> <y>")
		os.Exit(1)
	}
	x, errX := strconv.ParseFloat(flag.Arg(0), 64)
	y, errY := strconv.ParseFloat(flag.Arg(1), 64)
	if errX != nil || errY != nil {
		log.Fatal("coordinates must be numbers", zap.Strings("args", flag.Args()))
	}

	from, to := geo.UTM(*zone, *south), geo.WGS84
	if *inverse {
		from, to = to, from
	}

	p, err := geo.Project(orb.Point{x, y}, from, to)
	if err != nil {
		log.Fatal("projection failed", zap.Error(err))
	}
	fmt.Printf("%s -> %s: %.8f %.8f\n", from, to, p[0], p[1])
}
