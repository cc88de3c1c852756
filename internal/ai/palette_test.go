package ai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePalette(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func writeTestLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePalette(t, dir, "energetic.yaml", `
palette:
  mood: energetic
  primary_color: "#FF6B6B"
  secondary_color: "#4ECDC4"
  accent_color: "#FFE66D"
  neutral_colors: ["#2C3E50", "#34495E", "#7F8C8D"]
`)
	writePalette(t, dir, "calm.yaml", `
palette:
  mood: calm
  primary_color: "#74B9FF"
  secondary_color: "#A29BFE"
  accent_color: "#FD79A8"
  neutral_colors: ["#2D3436", "#636E72", "#B2BEC3"]
`)
	writePalette(t, dir, "warm.yaml", `
palette:
  mood: warm
  primary_color: "#FF7675"
  secondary_color: "#FDCB6E"
  accent_color: "#E17055"
  neutral_colors: ["#2D3436", "#636E72", "#B2BEC3"]
`)
	writePalette(t, dir, "cool.yaml", `
palette:
  mood: cool
  primary_color: "#6C5CE7"
  secondary_color: "#A29BFE"
  accent_color: "#74B9FF"
  neutral_colors: ["#2D3436", "#636E72", "#B2BEC3"]
`)
	return dir
}

func TestLoadLibrary(t *testing.T) {
	lib, err := LoadLibrary(writeTestLibrary(t))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"energetic", "calm", "warm", "cool"}, lib.Moods())
}

func TestLoadLibrary_EmptyDir(t *testing.T) {
	_, err := LoadLibrary(t.TempDir())
	assert.Error(t, err)
}

func TestLoadLibrary_MissingDir(t *testing.T) {
	_, err := LoadLibrary(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadLibrary_InvalidColor(t *testing.T) {
	dir := t.TempDir()
	writePalette(t, dir, "bad.yaml", `
palette:
  mood: moody
  primary_color: "red"
  secondary_color: "#A29BFE"
  accent_color: "#FD79A8"
`)
	_, err := LoadLibrary(dir)
	assert.ErrorContains(t, err, "invalid color")
}

func TestLoadLibrary_DuplicateMood(t *testing.T) {
	dir := t.TempDir()
	body := `
palette:
  mood: calm
  primary_color: "#74B9FF"
  secondary_color: "#A29BFE"
  accent_color: "#FD79A8"
`
	writePalette(t, dir, "a.yaml", body)
	writePalette(t, dir, "b.yaml", body)
	_, err := LoadLibrary(dir)
	assert.ErrorContains(t, err, "duplicate mood")
}

func TestLoadLibrary_MissingTopLevelKey(t *testing.T) {
	dir := t.TempDir()
	writePalette(t, dir, "bare.yaml", `mood: calm`)
	_, err := LoadLibrary(dir)
	assert.ErrorContains(t, err, "missing top-level 'palette' key")
}

func TestSelectMood(t *testing.T) {
	cases := []struct {
		name   string
		params MoodParams
		want   string
	}{
		{"high energy wins", MoodParams{Energy: "high", Temperature: "warm"}, MoodEnergetic},
		{"warm temperature", MoodParams{Energy: "low", Temperature: "warm"}, MoodWarm},
		{"cool temperature", MoodParams{Temperature: "cool"}, MoodCool},
		{"default is calm", MoodParams{}, MoodCalm},
		{"unknown labels fall back", MoodParams{Energy: "medium", Temperature: "tepid"}, MoodCalm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SelectMood(tc.params))
		})
	}
}

func TestLibrary_Generate(t *testing.T) {
	lib, err := LoadLibrary(writeTestLibrary(t))
	require.NoError(t, err)

	p, err := lib.Generate(MoodParams{Energy: "high"})
	require.NoError(t, err)
	assert.Equal(t, "#FF6B6B", p.PrimaryColor)

	p, err = lib.Generate(MoodParams{Temperature: "cool"})
	require.NoError(t, err)
	assert.Equal(t, "#6C5CE7", p.PrimaryColor)
}

func TestLibrary_Generate_FallsBackToCalm(t *testing.T) {
	dir := t.TempDir()
	writePalette(t, dir, "calm.yaml", `
palette:
  mood: calm
  primary_color: "#74B9FF"
  secondary_color: "#A29BFE"
  accent_color: "#FD79A8"
`)
	lib, err := LoadLibrary(dir)
	require.NoError(t, err)

	p, err := lib.Generate(MoodParams{Energy: "high"})
	require.NoError(t, err)
	assert.Equal(t, "#74B9FF", p.PrimaryColor)
}

func TestLibrary_Generate_NoFallback(t *testing.T) {
	dir := t.TempDir()
	writePalette(t, dir, "warm.yaml", `
palette:
  mood: warm
  primary_color: "#FF7675"
  secondary_color: "#FDCB6E"
  accent_color: "#E17055"
`)
	lib, err := LoadLibrary(dir)
	require.NoError(t, err)

	_, err = lib.Generate(MoodParams{Energy: "high"})
	assert.Error(t, err)
}
