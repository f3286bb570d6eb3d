package lrc

import "sort"

// timed is satisfied by pointers to Line, Word and RichLine
type timed[T any] interface {
	*T
	timing() *Timing
}

// finalize stable-sorts items by begin and resolves every end that is not
// after its begin: the next entry's begin, else a positive hint that is not
// before the entry's begin, else begin + DefaultSpanMs. Durations are
// recomputed for every entry.
func finalize[T any, P timed[T]](items []T, hintMs int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return P(&items[i]).timing().Begin < P(&items[j]).timing().Begin
	})

	for i := range items {
		t := P(&items[i]).timing()
		if t.End <= t.Begin {
			switch {
			case i+1 < len(items):
				t.End = P(&items[i+1]).timing().Begin
			case hintMs > 0 && hintMs >= t.Begin:
				t.End = hintMs
			default:
				t.End = t.Begin + DefaultSpanMs
			}
		}
		t.Duration = max(0, t.End-t.Begin)
	}
}
