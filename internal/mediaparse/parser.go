package mediaparse

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moistari/rls"
	ptn "github.com/razsteinmetz/go-ptn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Engine names a filename parser implementation.
type Engine string

const (
	EngineRLS Engine = "rls"
	EnginePTN Engine = "ptn"
)

// ParseEngine validates an engine name from configuration.
func ParseEngine(value string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(value))) {
	case EngineRLS, "":
		return EngineRLS, nil
	case EnginePTN:
		return EnginePTN, nil
	default:
		return "", fmt.Errorf("unknown parser engine %q", value)
	}
}

// Parser extracts a Guess from filenames using the configured engine.
type Parser struct {
	engine Engine
}

// New returns a parser for the named engine.
func New(engine string) (*Parser, error) {
	parsed, err := ParseEngine(engine)
	if err != nil {
		return nil, err
	}
	return &Parser{engine: parsed}, nil
}

// Engine reports which implementation the parser uses.
func (p *Parser) Engine() Engine {
	return p.engine
}

var extensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{2,4}$`)

// Parse reads filename (a base name or full path). A Guess with an empty
// title means nothing searchable was found.
func (p *Parser) Parse(filename string) Guess {
	name := stripExtension(filepath.Base(strings.TrimSpace(filename)))
	if name == "" || name == "." {
		return Guess{Kind: KindUnknown}
	}
	var guess Guess
	switch p.engine {
	case EnginePTN:
		guess = parsePTN(name)
	default:
		guess = parseRLS(name)
	}
	guess.Title = tidyTitle(guess.Title)
	return guess
}

func stripExtension(name string) string {
	ext := filepath.Ext(name)
	if ext != "" && extensionPattern.MatchString(ext) {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

func parseRLS(name string) Guess {
	release := rls.ParseString(name)
	guess := Guess{
		Title:   release.Title,
		Year:    release.Year,
		Season:  release.Series,
		Episode: release.Episode,
	}
	switch release.Type {
	case rls.Episode, rls.Series:
		guess.Kind = KindEpisode
	case rls.Movie:
		guess.Kind = KindMovie
	default:
		guess.Kind = inferKind(guess.Season, guess.Episode, guess.Year)
	}
	// A bare title with no release tags is a movie, as with ptn.
	if guess.Kind == KindUnknown {
		guess.Kind = KindMovie
	}
	if guess.Kind == KindEpisode && guess.Season == 0 && guess.Episode > 0 {
		guess.Season = 1
	}
	return guess
}

func parsePTN(name string) Guess {
	info, err := ptn.Parse(name)
	if err != nil || info == nil {
		return Guess{Title: strings.NewReplacer(".", " ", "_", " ").Replace(name), Kind: KindUnknown}
	}
	guess := Guess{
		Title:   info.Title,
		Year:    info.Year,
		Season:  info.Season,
		Episode: info.Episode,
	}
	guess.Kind = inferKind(guess.Season, guess.Episode, guess.Year)
	if guess.Kind == KindUnknown {
		guess.Kind = KindMovie
	}
	if guess.Kind == KindEpisode && guess.Season == 0 {
		guess.Season = 1
	}
	return guess
}

// inferKind classifies from numbers alone when the engine could not.
func inferKind(season, episode, year int) Kind {
	switch {
	case episode > 0:
		return KindEpisode
	case year > 0 && season == 0:
		return KindMovie
	default:
		return KindUnknown
	}
}

// tidyTitle collapses separators and title-cases names written entirely in
// lower case so pending-review listings read naturally.
func tidyTitle(title string) string {
	title = strings.Join(strings.Fields(strings.NewReplacer(".", " ", "_", " ").Replace(title)), " ")
	if title == "" {
		return ""
	}
	if strings.ToLower(title) == title {
		title = cases.Title(language.English).String(title)
	}
	return title
}
