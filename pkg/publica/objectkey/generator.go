package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for image object key generation strategies
type Generator interface {
	// GenerateKey creates a bucket key for a new image object inside folder
	GenerateKey(folder string) string
}

// FlatGenerator produces the conventional flat layout:
//
//	{folder}/{uuid}.jpg
type FlatGenerator struct {
	// Extension is appended to the generated name (default: "jpg")
	Extension string
}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{Extension: "jpg"}
}

func (g *FlatGenerator) GenerateKey(folder string) string {
	ext := g.Extension
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%s.%s", sanitizePathComponent(folder), uuid.New(), ext)
}

// ShardedGenerator spreads objects across prefix directories, Git-style:
//
//	{folder}/ab/cd1234....jpg
//
// Useful for very large buckets where flat listings get slow.
type ShardedGenerator struct {
	// ShardLength controls how many characters form the shard prefix
	// (default: 2)
	ShardLength int
	Extension   string
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{ShardLength: 2, Extension: "jpg"}
}

func (g *ShardedGenerator) GenerateKey(folder string) string {
	shardLen := g.ShardLength
	if shardLen <= 0 {
		shardLen = 2
	}
	ext := g.Extension
	if ext == "" {
		ext = "jpg"
	}

	name := strings.ReplaceAll(uuid.New().String(), "-", "")
	if shardLen > len(name) {
		shardLen = len(name)
	}

	return fmt.Sprintf("%s/%s/%s.%s",
		sanitizePathComponent(folder), name[:shardLen], name[shardLen:], ext)
}

// NewRecommendedGenerator returns the generator new installations should use.
func NewRecommendedGenerator() Generator {
	return NewFlatGenerator()
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return strings.ToLower(replacer.Replace(component))
}
