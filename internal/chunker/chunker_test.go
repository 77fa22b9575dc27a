package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, s.chunkSize)
		}
		if s.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, s.overlap)
		}
	})

	t.Run("custom options", func(t *testing.T) {
		s := New(WithChunkSize(500), WithOverlap(50))
		if s.chunkSize != 500 || s.overlap != 50 {
			t.Errorf("options not applied: size=%d overlap=%d", s.chunkSize, s.overlap)
		}
	})

	t.Run("overlap exceeding chunk size is reduced", func(t *testing.T) {
		s := New(WithChunkSize(100), WithOverlap(150))
		if s.overlap >= s.chunkSize {
			t.Errorf("overlap %d not reduced below chunk size %d", s.overlap, s.chunkSize)
		}
	})

	t.Run("non-positive values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0), WithOverlap(-1))
		if s.chunkSize != DefaultChunkSize || s.overlap != DefaultOverlap {
			t.Errorf("invalid options should keep defaults, got size=%d overlap=%d", s.chunkSize, s.overlap)
		}
	})
}

func TestSplit_Empty(t *testing.T) {
	s := New()
	if got := s.Split(""); got != nil {
		t.Errorf("empty input should yield nil, got %v", got)
	}
	if got := s.Split("  \n\n  "); got != nil {
		t.Errorf("whitespace-only input should yield nil, got %v", got)
	}
}

func TestSplit_SmallInputIsSingleSegment(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(10))
	got := s.Split("Battery replacement costs $50.")
	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	if got[0] != "Battery replacement costs $50." {
		t.Errorf("segment altered: %q", got[0])
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := New(WithChunkSize(30), WithOverlap(0))
	text := "first paragraph here.\n\nsecond paragraph here.\n\nthird one."
	got := s.Split(text)

	if len(got) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(got))
	}
	for i, seg := range got {
		if strings.Contains(seg, "\n\n") {
			t.Errorf("segment %d spans a paragraph boundary: %q", i, seg)
		}
	}
	if got[0] != "first paragraph here." {
		t.Errorf("first segment = %q", got[0])
	}
}

func TestSplit_SegmentSizeBound(t *testing.T) {
	s := New(WithChunkSize(50), WithOverlap(0))
	text := strings.Repeat("many short words joined together go here ", 40)
	for i, seg := range s.Split(text) {
		if len([]rune(seg)) > 50 {
			t.Errorf("segment %d exceeds chunk size: %d chars", i, len([]rune(seg)))
		}
	}
}

func TestSplit_HardSplitWithoutSeparators(t *testing.T) {
	s := New(WithChunkSize(10), WithOverlap(0))
	got := s.Split(strings.Repeat("x", 25))
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	if got[0] != strings.Repeat("x", 10) || got[2] != strings.Repeat("x", 5) {
		t.Errorf("unexpected hard split: %v", got)
	}
}

func TestSplit_OverlapSharedBetweenSegments(t *testing.T) {
	s := New(WithChunkSize(20), WithOverlap(5))
	text := "aaaa bbbb cccc dddd eeee ffff gggg hhhh"
	got := s.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected multiple segments, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if !strings.HasPrefix(got[i], tailOf(t, got, i-1, 5)) {
			t.Errorf("segment %d does not start with predecessor's tail: %q", i, got[i])
		}
	}
}

// tailOf reproduces the expected overlap prefix from the raw predecessor.
// The predecessor itself may carry an overlap prefix, which is part of its
// text and therefore part of its tail.
func tailOf(t *testing.T, segments []string, i, n int) string {
	t.Helper()
	runes := []rune(segments[i])
	if len(runes) <= n {
		return segments[i]
	}
	return string(runes[len(runes)-n:])
}

func TestSplit_OverlapCountsAgainstChunkSize(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(20))
	paragraph := strings.TrimSpace(strings.Repeat("fixed words here ", 6)) // 90+ chars
	text := strings.Repeat(paragraph+"\n\n", 9)

	got := s.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(got))
	}
	for i, seg := range got {
		if n := utf8.RuneCountInString(seg); n > 100 {
			t.Errorf("segment %d has %d chars, exceeds chunk size 100", i, n)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s := New(WithChunkSize(40), WithOverlap(8))
	text := strings.Repeat("sentence one. sentence two.\n\nparagraph break. ", 20)
	first := s.Split(text)
	for run := 0; run < 3; run++ {
		again := s.Split(text)
		if len(again) != len(first) {
			t.Fatalf("run %d: segment count changed: %d vs %d", run, len(again), len(first))
		}
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d: segment %d differs", run, i)
			}
		}
	}
}

func TestSplit_MultibyteSafe(t *testing.T) {
	s := New(WithChunkSize(10), WithOverlap(2))
	text := strings.Repeat("배터리 교체 비용 안내 ", 10)
	for i, seg := range s.Split(text) {
		if !utf8.ValidString(seg) {
			t.Fatalf("segment %d is not valid UTF-8: %q", i, seg)
		}
	}
}
