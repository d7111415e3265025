package mediaparse

import "testing"

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"", EngineRLS, false},
		{"rls", EngineRLS, false},
		{" PTN ", EnginePTN, false},
		{"guessit", "", true},
	}
	for _, tc := range tests {
		got, err := ParseEngine(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseEngine(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseEngine(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestParseMovieAndEpisode(t *testing.T) {
	for _, engine := range []string{"rls", "ptn"} {
		t.Run(engine, func(t *testing.T) {
			parser, err := New(engine)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			movie := parser.Parse("/inbox/Inception.2010.1080p.BluRay.x264-GROUP.mkv")
			if movie.Title != "Inception" || movie.Year != 2010 || movie.Kind != KindMovie {
				t.Fatalf("unexpected movie guess: %+v", movie)
			}
			if movie.EpisodeKey() != "" {
				t.Fatalf("movie should have no episode key, got %q", movie.EpisodeKey())
			}

			for _, name := range []string{"Inception.mkv", "/inbox/Heat.mkv"} {
				bare := parser.Parse(name)
				if bare.Kind != KindMovie || bare.Year != 0 || bare.EpisodeKey() != "" {
					t.Fatalf("Parse(%q) = %+v, want a yearless movie", name, bare)
				}
			}

			episode := parser.Parse("Breaking.Bad.S01E02.720p.HDTV.x264-GRP.mkv")
			if episode.Title != "Breaking Bad" || episode.Season != 1 || episode.Episode != 2 || episode.Kind != KindEpisode {
				t.Fatalf("unexpected episode guess: %+v", episode)
			}
			if episode.EpisodeKey() != "s01e02" {
				t.Fatalf("unexpected episode key %q", episode.EpisodeKey())
			}
		})
	}
}

func TestParseEmptyNameHasNoTitle(t *testing.T) {
	parser, err := New("rls")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"", "   ", ".mkv"} {
		if guess := parser.Parse(name); guess.HasTitle() {
			t.Fatalf("Parse(%q) expected no title, got %+v", name, guess)
		}
	}
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		season, episode, year int
		want                  Kind
	}{
		{0, 3, 0, KindEpisode},
		{2, 0, 0, KindUnknown},
		{0, 0, 1999, KindMovie},
		{0, 0, 0, KindUnknown},
	}
	for _, tc := range tests {
		if got := inferKind(tc.season, tc.episode, tc.year); got != tc.want {
			t.Fatalf("inferKind(%d,%d,%d) = %q, want %q", tc.season, tc.episode, tc.year, got, tc.want)
		}
	}
}

func TestTidyTitle(t *testing.T) {
	tests := map[string]string{
		"the.matrix":    "The Matrix",
		"Blade_Runner":  "Blade Runner",
		"  Mad   Max  ": "Mad Max",
		"WALL-E":        "WALL-E",
		"":              "",
	}
	for in, want := range tests {
		if got := tidyTitle(in); got != want {
			t.Fatalf("tidyTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
