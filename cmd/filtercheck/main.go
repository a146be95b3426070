// Command filtercheck probes a running image transform service: reports its
// health, lists the filters it advertises, and optionally runs an image
// through a filter to verify the processing path end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/publica-dev/publica/pkg/publica/transform"
)

type Config struct {
	TransformURL string `env:"TRANSFORM_URL" env-default:"http://localhost:5000"`
	Timeout      int    `env:"TRANSFORM_TIMEOUT_SECONDS" env-default:"30"`
}

func main() {
	filterName := flag.String("filter", "", "Filter to run the test image through (requires -file)")
	filePath := flag.String("file", "", "Image file to process")
	outPath := flag.String("out", "", "Where to write the processed image (default: stdout summary only)")
	flag.Parse()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	client := transform.NewClient(cfg.TransformURL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	health := client.Health(ctx)
	fmt.Printf("Service:  %s\n", cfg.TransformURL)
	fmt.Printf("Health:   %s\n", health.Status)
	if health.Error != "" {
		fmt.Printf("Detail:   %s\n", health.Error)
	}

	filters, err := client.Filters(ctx)
	if err != nil {
		log.Fatalf("Failed to list filters: %v", err)
	}
	fmt.Printf("Filters:  %v\n", filters)

	if *filterName == "" {
		return
	}
	if *filePath == "" {
		log.Fatal("A test image is required: -filter needs -file")
	}

	image, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	start := time.Now()
	processed, err := client.Transform(ctx, image, *filterName)
	if err != nil {
		log.Fatalf("Transform failed: %v", err)
	}
	fmt.Printf("Processed %d bytes -> %d bytes in %s\n", len(image), len(processed), time.Since(start).Round(time.Millisecond))

	if *outPath != "" {
		if err := os.WriteFile(*outPath, processed, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Wrote %s\n", *outPath)
	}
}
