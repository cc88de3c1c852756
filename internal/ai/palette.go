// Package ai implements the generative helpers behind the suggestion API:
// mood-driven palette selection, image search query generation, and the
// chat assistant.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MoodParams describe the board's mood as submitted by the client.
// Energy and Temperature are coarse labels ("high", "warm", "cool"),
// not numeric values.
type MoodParams struct {
	Energy      string   `json:"energy"`
	Temperature string   `json:"temperature"`
	Theme       string   `json:"theme"`
	Keywords    []string `json:"keywords"`
}

// Mood labels palettes are keyed by.
const (
	MoodEnergetic = "energetic"
	MoodCalm      = "calm"
	MoodWarm      = "warm"
	MoodCool      = "cool"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Palette is a curated color scheme for one mood, loaded from YAML.
//
// Precondition: Mood, PrimaryColor, SecondaryColor, and AccentColor must be non-empty.
type Palette struct {
	Mood           string   `yaml:"mood" json:"-"`
	PrimaryColor   string   `yaml:"primary_color" json:"primaryColor"`
	SecondaryColor string   `yaml:"secondary_color" json:"secondaryColor"`
	AccentColor    string   `yaml:"accent_color" json:"accentColor"`
	NeutralColors  []string `yaml:"neutral_colors" json:"neutralColors"`
}

// Validate checks all required fields and color formats.
//
// Postcondition: nil return guarantees a non-empty mood and that every
// color is a #RRGGBB hex string.
func (p *Palette) Validate() error {
	if p.Mood == "" {
		return errors.New("ai.Palette: mood must not be empty")
	}
	colors := append([]string{p.PrimaryColor, p.SecondaryColor, p.AccentColor}, p.NeutralColors...)
	for _, c := range colors {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("ai.Palette %q: invalid color %q", p.Mood, c)
		}
	}
	return nil
}

// Library holds the loaded palettes keyed by mood.
//
// Invariant: every stored palette has passed Validate.
type Library struct {
	palettes map[string]*Palette
}

// yamlPaletteFile wraps the YAML top-level key.
type yamlPaletteFile struct {
	Palette *Palette `yaml:"palette"`
}

// LoadLibrary reads all *.yaml files from dir and returns a palette Library.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error if any file fails to parse or validate,
// or if two files declare the same mood.
func LoadLibrary(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadLibrary: reading %q: %w", dir, err)
	}
	lib := &Library{palettes: make(map[string]*Palette)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ai.LoadLibrary: reading %s: %w", e.Name(), err)
		}
		var f yamlPaletteFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("ai.LoadLibrary: parsing %s: %w", e.Name(), err)
		}
		if f.Palette == nil {
			return nil, fmt.Errorf("ai.LoadLibrary: %s missing top-level 'palette' key", e.Name())
		}
		if err := f.Palette.Validate(); err != nil {
			return nil, err
		}
		if _, dup := lib.palettes[f.Palette.Mood]; dup {
			return nil, fmt.Errorf("ai.LoadLibrary: duplicate mood %q in %s", f.Palette.Mood, e.Name())
		}
		lib.palettes[f.Palette.Mood] = f.Palette
	}
	if len(lib.palettes) == 0 {
		return nil, fmt.Errorf("ai.LoadLibrary: no palettes found in %q", dir)
	}
	return lib, nil
}

// Moods returns the moods the library has palettes for.
func (l *Library) Moods() []string {
	moods := make([]string, 0, len(l.palettes))
	for m := range l.palettes {
		moods = append(moods, m)
	}
	return moods
}

// SelectMood maps mood parameters to a palette mood. High energy wins
// over temperature; unknown combinations fall back to calm.
func SelectMood(params MoodParams) string {
	switch {
	case params.Energy == "high":
		return MoodEnergetic
	case params.Temperature == "warm":
		return MoodWarm
	case params.Temperature == "cool":
		return MoodCool
	default:
		return MoodCalm
	}
}

// Generate returns the palette for the given mood parameters.
//
// Postcondition: Returns a validated palette, or an error if neither the
// selected mood nor the calm fallback is present in the library.
func (l *Library) Generate(params MoodParams) (*Palette, error) {
	mood := SelectMood(params)
	if p, ok := l.palettes[mood]; ok {
		return p, nil
	}
	if p, ok := l.palettes[MoodCalm]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("ai.Library: no palette for mood %q and no calm fallback", mood)
}
