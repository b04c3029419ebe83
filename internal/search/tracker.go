package search

import "sync/atomic"

// Tracker hands out increasing request tokens. Only the response carrying
// the most recently issued token may be applied; anything older is stale.
type Tracker struct {
	latest atomic.Uint64
}

func (t *Tracker) Issue() uint64 {
	return t.latest.Add(1)
}

func (t *Tracker) IsLatest(token uint64) bool {
	return t.latest.Load() == token
}

// Latest returns the last issued token, or 0 if none was issued.
func (t *Tracker) Latest() uint64 {
	return t.latest.Load()
}
