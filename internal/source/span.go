package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) inside one file version.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(off uint32) bool {
	return off >= s.Start && off < s.End
}

// Covers reports whether other lies entirely within s.
func (s Span) Covers(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover extends s to include other. Spans from different files are left alone.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Rebase returns the span expressed relative to a new file with the item
// moved by delta bytes. Used when a lowered item is reused at a new offset.
func (s Span) Rebase(file FileID, delta int64) Span {
	return Span{
		File:  file,
		Start: uint32(int64(s.Start) + delta),
		End:   uint32(int64(s.End) + delta),
	}
}
