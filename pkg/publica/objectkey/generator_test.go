package objectkey

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatGenerator(t *testing.T) {
	g := NewFlatGenerator()

	key := g.GenerateKey("publications")
	parts := strings.Split(key, "/")
	require.Len(t, parts, 2)
	assert.Equal(t, "publications", parts[0])
	assert.True(t, strings.HasSuffix(parts[1], ".jpg"))

	name := strings.TrimSuffix(parts[1], ".jpg")
	_, err := uuid.Parse(name)
	assert.NoError(t, err, "name should be a uuid")

	assert.NotEqual(t, key, g.GenerateKey("publications"), "keys must be unique")
}

func TestFlatGeneratorCustomExtension(t *testing.T) {
	g := &FlatGenerator{Extension: "png"}
	assert.True(t, strings.HasSuffix(g.GenerateKey("avatars"), ".png"))
}

func TestShardedGenerator(t *testing.T) {
	g := NewShardedGenerator()

	key := g.GenerateKey("publications")
	parts := strings.Split(key, "/")
	require.Len(t, parts, 3)
	assert.Equal(t, "publications", parts[0])
	assert.Len(t, parts[1], 2)
	assert.True(t, strings.HasSuffix(parts[2], ".jpg"))
}

func TestSanitizePathComponent(t *testing.T) {
	g := NewFlatGenerator()

	key := g.GenerateKey("My Folder/With:Weird*Chars")
	assert.True(t, strings.HasPrefix(key, "my_folder_with_weird_chars/"))
}

func TestRecommendedGenerator(t *testing.T) {
	g := NewRecommendedGenerator()
	assert.IsType(t, &FlatGenerator{}, g)
}
