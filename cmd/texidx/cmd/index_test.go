package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_IndexesTextures(t *testing.T) {
	textureDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "texture_index.db")
	writeTestPNG(t, filepath.Join(textureDir, "Things", "Wall_Atlas.png"))
	writeTestPNG(t, filepath.Join(textureDir, "UI", "Medical.png"))

	output, err := runCommand(t, "--textures", textureDir, "--db", dbPath, "index")

	require.NoError(t, err)
	assert.Contains(t, output, "2 files scanned")
	assert.Contains(t, output, "2 added or updated")
	assert.FileExists(t, dbPath, "Index pass should create the database")
}

func TestIndexCmd_SecondRunSkipsUnchanged(t *testing.T) {
	textureDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "texture_index.db")
	writeTestPNG(t, filepath.Join(textureDir, "Things", "Wall_Atlas.png"))
	writeTestPNG(t, filepath.Join(textureDir, "Things", "Door.png"))

	_, err := runCommand(t, "--textures", textureDir, "--db", dbPath, "index")
	require.NoError(t, err)

	output, err := runCommand(t, "--textures", textureDir, "--db", dbPath, "index")

	require.NoError(t, err)
	assert.Contains(t, output, "0 added or updated", "Unchanged files should not be re-indexed")
	assert.Contains(t, output, "2 unchanged")
}

func TestIndexCmd_MissingTextureDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "texture_index.db")

	_, err := runCommand(t, "--textures", filepath.Join(t.TempDir(), "missing"), "--db", dbPath, "index")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not accessible")
	assert.NoFileExists(t, dbPath, "No database should be created for a bad texture root")
}

func TestIndexCmd_CreatesDatabaseDirectory(t *testing.T) {
	textureDir := t.TempDir()
	writeTestPNG(t, filepath.Join(textureDir, "Things", "Wall_Atlas.png"))

	// The database parent directory does not exist yet
	dbPath := filepath.Join(t.TempDir(), "nested", "idx", "texture_index.db")

	_, err := runCommand(t, "--textures", textureDir, "--db", dbPath, "index")

	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestIndexCmd_DefaultsDatabaseIntoTextureRoot(t *testing.T) {
	t.Setenv("DATABASE_DIR", "")
	textureDir := t.TempDir()
	writeTestPNG(t, filepath.Join(textureDir, "Things", "Wall_Atlas.png"))

	_, err := runCommand(t, "--textures", textureDir, "index")

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(textureDir, databaseFile),
		"Without --db the index lands next to the textures")
}

func TestIndexCmd_RejectsArguments(t *testing.T) {
	_, err := runCommand(t, "index", "extra")

	require.Error(t, err)
}

func TestIndexCmd_SkipsDatabaseFileInRoot(t *testing.T) {
	// The database living inside the scan root must not index itself
	t.Setenv("DATABASE_DIR", "")
	textureDir := t.TempDir()
	writeTestPNG(t, filepath.Join(textureDir, "Things", "Wall_Atlas.png"))

	_, err := runCommand(t, "--textures", textureDir, "index")
	require.NoError(t, err)

	output, err := runCommand(t, "--textures", textureDir, "index")
	require.NoError(t, err)

	// Still just the one texture; the .db file is not a texture extension
	assert.Contains(t, output, "1 files scanned")

	if _, statErr := os.Stat(filepath.Join(textureDir, databaseFile)); statErr != nil {
		t.Fatalf("database should still exist in texture root: %v", statErr)
	}
}
