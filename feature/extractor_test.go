package feature

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/cinekit/core"
)

func mkMovie(id int64, overview string, genres ...string) *core.Movie {
	m := &core.Movie{ID: id, Title: "m", Overview: overview}
	for i, g := range genres {
		m.Genres = append(m.Genres, core.Genre{ID: int64(i + 1), Name: g})
	}
	return m
}

func TestBuildGenreCosine(t *testing.T) {
	// X={Action,Sci-Fi}, Y={Action,Adventure}，无简介文本：
	// 类型维上 X 与 Y 恰好共享一维，余弦 = 1/2
	movies := []*core.Movie{
		mkMovie(1, "", "Action", "Sci-Fi"),
		mkMovie(2, "", "Action", "Adventure"),
	}

	e := &Extractor{}
	set, err := e.Build(context.Background(), movies, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := set.Cosine(1, 2); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Cosine(1,2) = %v, want 0.5", got)
	}
	// 自身余弦为 1
	if got := set.Cosine(1, 1); math.Abs(got-1) > 1e-9 {
		t.Errorf("Cosine(1,1) = %v, want 1", got)
	}
}

func TestBuildVectorsNormalized(t *testing.T) {
	movies := []*core.Movie{
		mkMovie(1, "a lone ranger rides into the sunset", "Western"),
		mkMovie(2, "the ranger returns to the valley", "Western", "Drama"),
		mkMovie(3, "", "Comedy"),
	}

	e := &Extractor{}
	set, err := e.Build(context.Background(), movies, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for id, vec := range set.Vectors {
		var norm float64
		for _, x := range vec {
			norm += x * x
		}
		if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
			t.Errorf("movie %d: |v| = %v, want 1", id, math.Sqrt(norm))
		}
		if len(vec) != set.Dims() {
			t.Errorf("movie %d: dims = %d, want %d", id, len(vec), set.Dims())
		}
	}
}

func TestBuildVocabSizeCap(t *testing.T) {
	movies := []*core.Movie{
		mkMovie(1, "alpha beta gamma delta epsilon zeta", "Drama"),
		mkMovie(2, "alpha beta gamma theta iota kappa", "Drama"),
	}

	e := &Extractor{VocabSize: 3}
	set, err := e.Build(context.Background(), movies, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 1 个类型维 + 至多 3 个词维
	if got := set.Dims(); got != 4 {
		t.Errorf("Dims = %d, want 4", got)
	}
	// 高文档频率的词优先保留
	if set.Vocabulary.TermIndex("alpha") < 0 {
		t.Errorf("high-df term alpha should be in vocabulary")
	}
}

func TestBuildEmptyCatalog(t *testing.T) {
	e := &Extractor{}
	_, err := e.Build(context.Background(), nil, 1)
	if !core.IsEmptyCatalog(err) {
		t.Errorf("err = %v, want EMPTY_CATALOG", err)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercase and split", "The Quick Fox", []string{"the", "quick", "fox"}},
		{"drop single letters", "a I ok", []string{"ok"}},
		{"punctuation boundaries", "sci-fi; drama!", []string{"sci", "fi", "drama"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
				}
			}
		})
	}
}

func TestExternalVectorSet(t *testing.T) {
	set := NewExternalVectorSet(3, map[int64][]float64{
		1: {1, 0, 0},
		2: {0, 1, 0},
	})
	if got := set.Dims(); got != 3 {
		t.Errorf("Dims = %d, want 3", got)
	}
	if got := set.Cosine(1, 2); got != 0 {
		t.Errorf("Cosine = %v, want 0", got)
	}
	if set.Vector(99) != nil {
		t.Errorf("Vector(99) should be nil")
	}
}
