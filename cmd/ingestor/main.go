package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samirrijal/curbside/internal/adapters/overpass"
	"github.com/samirrijal/curbside/internal/adapters/postgis"
	"github.com/samirrijal/curbside/internal/core/domain"
	"github.com/samirrijal/curbside/internal/pkg/config"
	"github.com/samirrijal/curbside/internal/pkg/geospatial"
)

// Manifest lists the road data to load into PostGIS.
type Manifest struct {
	Source    string      `json:"source"`
	Areas     []AreaEntry `json:"areas"`
	Snapshots []string    `json:"snapshots"`
}

// AreaEntry is a square region fetched from Overpass.
type AreaEntry struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	RadiusMiles float64 `json:"radius_miles"`
}

func main() {
	cfg, err := config.Load("curbside-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgis.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("Curbside road ingestor: %d areas, %d snapshots from %s",
		len(manifest.Areas), len(manifest.Snapshots), manifest.Source)

	// Optional CLI arg: comma-separated area names
	nameFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			nameFilter[strings.TrimSpace(s)] = true
		}
	}

	repo := postgis.NewRoadRepo(db, cfg.Overpass.HighwayClasses)
	client := overpass.New(cfg.Overpass.URL,
		time.Duration(cfg.Overpass.TimeoutSeconds)*time.Second, cfg.Overpass.HighwayClasses)

	for _, path := range manifest.Snapshots {
		n, err := ingestSnapshot(ctx, repo, path)
		if err != nil {
			log.Printf("ERROR [%s]: %v", path, err)
			continue
		}
		log.Printf("[%s] %d roads stored", path, n)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 2) // Overpass rate-limits aggressive clients

	for _, area := range manifest.Areas {
		if len(nameFilter) > 0 && !nameFilter[area.Name] {
			continue
		}

		wg.Add(1)
		go func(a AreaEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := ingestArea(ctx, repo, client, a)
			if err != nil {
				log.Printf("ERROR [%s]: %v", a.Name, err)
				return
			}
			log.Printf("[%s] %d roads stored", a.Name, n)
		}(area)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, a := range m.Areas {
		if !(domain.GeoPoint{Lat: a.Lat, Lon: a.Lon}).Valid() || !(a.RadiusMiles > 0) {
			return nil, fmt.Errorf("manifest area %d (%s): invalid center or radius", i, a.Name)
		}
	}
	return &m, nil
}

func ingestArea(ctx context.Context, repo *postgis.RoadRepo, client *overpass.Client, a AreaEntry) (int, error) {
	box := geospatial.NewBoundingBox(domain.GeoPoint{Lat: a.Lat, Lon: a.Lon}, a.RadiusMiles)
	log.Printf("[%s] fetching roads in %s", a.Name, geospatial.OverpassBBox(box))

	roads, err := client.FetchRoads(ctx, box)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	return repo.UpsertBatch(ctx, roads)
}

func ingestSnapshot(ctx context.Context, repo *postgis.RoadRepo, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	roads, err := overpass.DecodeRoads(data)
	if err != nil {
		return 0, err
	}
	return repo.UpsertBatch(ctx, roads)
}
