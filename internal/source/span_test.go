package source

import "testing"

func TestSpanBasics(t *testing.T) {
	s := Span{File: 1, Start: 4, End: 10}

	if s.Empty() {
		t.Errorf("span should not be empty")
	}
	if got := s.Len(); got != 6 {
		t.Errorf("Len = %d, want 6", got)
	}
	if !s.Contains(4) || s.Contains(10) {
		t.Errorf("Contains must be half-open: [4, 10)")
	}
	if got := s.String(); got != "1:4-10" {
		t.Errorf("String = %q", got)
	}
}

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Span
		want  Span
	}{
		{
			name: "extends right",
			a:    Span{File: 1, Start: 0, End: 5},
			b:    Span{File: 1, Start: 3, End: 9},
			want: Span{File: 1, Start: 0, End: 9},
		},
		{
			name: "extends left",
			a:    Span{File: 1, Start: 5, End: 9},
			b:    Span{File: 1, Start: 1, End: 6},
			want: Span{File: 1, Start: 1, End: 9},
		},
		{
			name: "different file ignored",
			a:    Span{File: 1, Start: 5, End: 9},
			b:    Span{File: 2, Start: 0, End: 100},
			want: Span{File: 1, Start: 5, End: 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.want {
				t.Fatalf("Cover = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSpanCovers(t *testing.T) {
	outer := Span{File: 1, Start: 0, End: 20}
	inner := Span{File: 1, Start: 5, End: 10}

	if !outer.Covers(inner) {
		t.Errorf("outer should cover inner")
	}
	if inner.Covers(outer) {
		t.Errorf("inner should not cover outer")
	}
}

func TestSpanRebase(t *testing.T) {
	s := Span{File: 1, Start: 10, End: 20}

	got := s.Rebase(FileID(7), -4)
	want := Span{File: 7, Start: 6, End: 16}
	if got != want {
		t.Fatalf("Rebase = %+v, want %+v", got, want)
	}
}
