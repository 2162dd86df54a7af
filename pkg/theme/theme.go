package theme

import (
	"errors"
	"regexp"
)

// DefaultThemeID is the theme a report uses until set_theme is applied.
const DefaultThemeID = "default"

// ErrNotFound is returned for unknown theme ids.
var ErrNotFound = errors.New("theme not found")

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Colors are the named document colours of a theme.
type Colors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// Theme is a client branding bundle. Themes change presentation only.
type Theme struct {
	ID           string   `json:"id"`
	ClientName   string   `json:"client_name"`
	Palette      []string `json:"palette"`
	Colors       Colors   `json:"colors"`
	BrandingText string   `json:"branding_text,omitempty"`
	LogoPath     string   `json:"logo_path,omitempty"`
	FontFamily   string   `json:"font_family,omitempty"`
}

// Summary is the listing form returned by list_themes.
type Summary struct {
	ID         string   `json:"id"`
	ClientName string   `json:"client_name"`
	Palette    []string `json:"palette"`
}

// Summary reduces t to its listing form.
func (t Theme) Summary() Summary {
	palette := make([]string, len(t.Palette))
	copy(palette, t.Palette)
	return Summary{ID: t.ID, ClientName: t.ClientName, Palette: palette}
}

// SeriesColor returns the palette colour for series i, cycling.
func (t Theme) SeriesColor(i int) string {
	if len(t.Palette) == 0 {
		return t.Colors.Primary
	}
	if i < 0 {
		i = -i
	}
	return t.Palette[i%len(t.Palette)]
}

// Validate checks the fields renderers rely on.
func (t Theme) Validate() error {
	if t.ID == "" {
		return errors.New("theme id is required")
	}
	if len(t.Palette) == 0 {
		return errors.New("theme palette is empty")
	}
	for _, c := range t.Palette {
		if !hexColor.MatchString(c) {
			return errors.New("invalid palette colour " + c)
		}
	}
	for _, c := range []string{t.Colors.Primary, t.Colors.Background, t.Colors.Text} {
		if !hexColor.MatchString(c) {
			return errors.New("invalid theme colour " + c)
		}
	}
	return nil
}

// Builtin returns the themes shipped with the binary.
func Builtin() []Theme {
	return []Theme{
		{
			ID:         DefaultThemeID,
			ClientName: "Default",
			Palette:    []string{"#1f4e79", "#2e75b6", "#9dc3e6", "#c55a11", "#7f7f7f"},
			Colors: Colors{
				Primary: "#1f4e79", Secondary: "#2e75b6", Accent: "#c55a11",
				Background: "#ffffff", Text: "#222222",
			},
			FontFamily: "Helvetica, Arial, sans-serif",
		},
		{
			ID:           "alpine_capital",
			ClientName:   "Alpine Capital Partners",
			Palette:      []string{"#0b3954", "#087e8b", "#bfd7ea", "#ff5a5f", "#c81d25"},
			Colors:       Colors{Primary: "#0b3954", Secondary: "#087e8b", Accent: "#ff5a5f", Background: "#f7fbfd", Text: "#10212b"},
			BrandingText: "Prepared exclusively for Alpine Capital Partners",
			FontFamily:   "Georgia, serif",
		},
		{
			ID:           "ember_wealth",
			ClientName:   "Ember Wealth Management",
			Palette:      []string{"#7a1f0f", "#d1495b", "#edae49", "#00798c", "#30638e"},
			Colors:       Colors{Primary: "#7a1f0f", Secondary: "#d1495b", Accent: "#edae49", Background: "#fffaf5", Text: "#2b1a14"},
			BrandingText: "Ember Wealth Management | Confidential",
			FontFamily:   "Helvetica, Arial, sans-serif",
		},
		{
			ID:           "verdant_advisors",
			ClientName:   "Verdant Advisors",
			Palette:      []string{"#1b4332", "#2d6a4f", "#52b788", "#95d5b2", "#d8f3dc"},
			Colors:       Colors{Primary: "#1b4332", Secondary: "#2d6a4f", Accent: "#52b788", Background: "#fbfefc", Text: "#1b2a22"},
			BrandingText: "Verdant Advisors | Sustainable Investing",
			FontFamily:   "Verdana, sans-serif",
		},
	}
}
