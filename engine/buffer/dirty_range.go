package buffer

import "sort"

// DirtyRange is a byte span known to have changed since the last backend upload.
type DirtyRange struct {
	Offset int
	Length int
}

// End returns the first byte past the range.
func (r DirtyRange) End() int {
	return r.Offset + r.Length
}

// DirtyRanges accumulates dirty spans in FIFO order. Duplicates and overlaps are kept; consumers coalesce.
type DirtyRanges struct {
	ranges []DirtyRange
}

// Mark records a dirty span. Empty or negative spans are ignored.
//
// Parameters:
//   - offset: the first dirty byte
//   - length: the number of dirty bytes
func (d *DirtyRanges) Mark(offset, length int) {
	if length <= 0 || offset < 0 {
		return
	}
	d.ranges = append(d.ranges, DirtyRange{Offset: offset, Length: length})
}

// Drain returns every recorded span in the order it was marked and clears the list.
//
// Returns:
//   - []DirtyRange: the pending spans, nil if there are none
func (d *DirtyRanges) Drain() []DirtyRange {
	if len(d.ranges) == 0 {
		return nil
	}
	out := d.ranges
	d.ranges = nil
	return out
}

// Len returns the number of pending spans.
func (d *DirtyRanges) Len() int {
	return len(d.ranges)
}

// Coalesce merges overlapping and adjacent spans after widening each one to alignment boundaries and clamping it
// to limit. The input is not modified.
//
// Parameters:
//   - ranges: the spans to merge, in any order
//   - alignment: the boundary to widen offsets down to and ends up to; values <= 1 leave spans untouched
//   - limit: the largest allowed end, usually the size of the destination; values <= 0 disable clamping
//
// Returns:
//   - []DirtyRange: disjoint spans sorted by offset
func Coalesce(ranges []DirtyRange, alignment, limit int) []DirtyRange {
	if len(ranges) == 0 {
		return nil
	}
	if alignment < 1 {
		alignment = 1
	}

	widened := make([]DirtyRange, 0, len(ranges))
	for _, r := range ranges {
		start := r.Offset - r.Offset%alignment
		end := r.End()
		if rem := end % alignment; rem != 0 {
			end += alignment - rem
		}
		if limit > 0 && end > limit {
			end = limit
		}
		if end <= start {
			continue
		}
		widened = append(widened, DirtyRange{Offset: start, Length: end - start})
	}
	sort.Slice(widened, func(i, j int) bool {
		return widened[i].Offset < widened[j].Offset
	})

	var out []DirtyRange
	for _, r := range widened {
		if n := len(out); n > 0 && r.Offset <= out[n-1].End() {
			if r.End() > out[n-1].End() {
				out[n-1].Length = r.End() - out[n-1].Offset
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
