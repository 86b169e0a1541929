package tabletop

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme holds every color and size the renderer falls back to when board
// data does not specify one. Zero configuration works: DefaultTheme matches
// the engine's documented fallbacks.
type Theme struct {
	// OffBoardFill clears the viewport outside the board rectangle.
	OffBoardFill Color
	// BoardFill paints a color background when none is set.
	BoardFill Color
	// BoardBorder strokes the board outline.
	BoardBorder Color
	// TokenFill is the body color for tokens without a backgroundColor.
	TokenFill Color
	// TokenText is the label color for tokens without a textColor.
	TokenText Color
	// NameText colors the name plate above a token.
	NameText Color
	// LoadingFill is the placeholder while a background image loads.
	LoadingFill Color
	// ErrorFill replaces a background image whose load failed.
	ErrorFill Color
	// ErrorCross is the diagonal X drawn over a token whose image failed.
	ErrorCross Color
	// Highlight strokes the selection rectangle.
	Highlight Color

	LabelFontSize float64
	NameFontSize  float64
}

// DefaultTheme returns the stock look.
func DefaultTheme() *Theme {
	return &Theme{
		OffBoardFill:  mustColor("#505050"),
		BoardFill:     mustColor("#ffffff"),
		BoardBorder:   mustColor("#444444"),
		TokenFill:     mustColor("#cccccc"),
		TokenText:     ColorBlack,
		NameText:      mustColor("#222222"),
		LoadingFill:   mustColor("#c8c8c8"),
		ErrorFill:     mustColor("#e0b4b4"),
		ErrorCross:    mustColor("#cc0000"),
		Highlight:     mustColor("rgba(0,150,255,0.9)"),
		LabelFontSize: 14,
		NameFontSize:  12,
	}
}

func mustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// themeFile is the YAML shape of a theme file. Every field is optional;
// empty fields keep their defaults.
type themeFile struct {
	OffBoardFill  string  `yaml:"offBoardFill"`
	BoardFill     string  `yaml:"boardFill"`
	BoardBorder   string  `yaml:"boardBorder"`
	TokenFill     string  `yaml:"tokenFill"`
	TokenText     string  `yaml:"tokenText"`
	NameText      string  `yaml:"nameText"`
	LoadingFill   string  `yaml:"loadingFill"`
	ErrorFill     string  `yaml:"errorFill"`
	ErrorCross    string  `yaml:"errorCross"`
	Highlight     string  `yaml:"highlight"`
	LabelFontSize float64 `yaml:"labelFontSize"`
	NameFontSize  float64 `yaml:"nameFontSize"`
}

// LoadTheme parses YAML theme data on top of the defaults.
func LoadTheme(data []byte) (*Theme, error) {
	var cfg themeFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	t := DefaultTheme()
	fields := []struct {
		src string
		dst *Color
	}{
		{cfg.OffBoardFill, &t.OffBoardFill},
		{cfg.BoardFill, &t.BoardFill},
		{cfg.BoardBorder, &t.BoardBorder},
		{cfg.TokenFill, &t.TokenFill},
		{cfg.TokenText, &t.TokenText},
		{cfg.NameText, &t.NameText},
		{cfg.LoadingFill, &t.LoadingFill},
		{cfg.ErrorFill, &t.ErrorFill},
		{cfg.ErrorCross, &t.ErrorCross},
		{cfg.Highlight, &t.Highlight},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		c, err := ParseColor(f.src)
		if err != nil {
			return nil, fmt.Errorf("parse theme: %w", err)
		}
		*f.dst = c
	}
	if cfg.LabelFontSize > 0 {
		t.LabelFontSize = cfg.LabelFontSize
	}
	if cfg.NameFontSize > 0 {
		t.NameFontSize = cfg.NameFontSize
	}
	return t, nil
}

// LoadThemeFile reads and parses a YAML theme file.
func LoadThemeFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme: %w", err)
	}
	return LoadTheme(data)
}
