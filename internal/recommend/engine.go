// Package recommend scores candidate events against a user's saved-event
// history and stated preferences, producing an ordered, deduplicated,
// size-bounded suggestion list.
package recommend

import (
	"math/rand"
	"sort"
	"time"

	"github.com/ereinhol/nycevents/internal/event"
	"github.com/ereinhol/nycevents/internal/user"
)

// DefaultLimit is the suggestion count used when the caller doesn't ask
// for a specific one.
const DefaultLimit = 5

// Scoring weights. Explicit profile preferences outweigh the implicit
// saved-history signal; the maximum score is 6.
const (
	favoriteTypeBonus    = 2
	homeBoroughBonus     = 2
	frequentTypeBonus    = 1
	frequentBoroughBonus = 1
)

// Engine computes personalized event recommendations. It is read-only and
// operates on snapshots; no locking is required.
//
// HistoryWindow limits how many of the most recently saved events feed the
// affinity signal. Zero means the whole saved history, which is the
// default: preference drift should decay slowly rather than abruptly.
type Engine struct {
	HistoryWindow int

	now func() time.Time
	rng *rand.Rand
}

// NewEngine creates an engine with the whole-history window and a
// time-seeded shuffle source.
func NewEngine() *Engine {
	return &Engine{
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Recommend returns up to limit future events for the user, best-scored
// first, backfilled with a random sample when too few events score above
// zero. The result never contains duplicates, already-saved events, or
// events without a start time strictly in the future. Ties keep the
// candidate input order, so results are deterministic for a fixed input
// and shuffle source.
func (e *Engine) Recommend(u *user.User, savedIDs []int64, candidates []*event.Event, limit int) []*event.Event {
	if limit <= 0 {
		return nil
	}

	saved := make(map[int64]bool, len(savedIDs))
	for _, id := range savedIDs {
		saved[id] = true
	}

	now := e.now()
	var future []*event.Event
	for _, c := range candidates {
		if c.IsFuture(now) && !saved[c.ID] {
			future = append(future, c)
		}
	}

	typeCounts, boroughCounts := e.affinity(savedIDs, candidates)
	frequentTypes := argmax(typeCounts)
	frequentBoroughs := argmax(boroughCounts)

	scores := make(map[int64]int, len(future))
	for _, f := range future {
		score := 0
		if u.FavoriteEventType != nil && f.EventType == *u.FavoriteEventType {
			score += favoriteTypeBonus
		}
		if u.HomeBorough != nil && f.Borough == *u.HomeBorough {
			score += homeBoroughBonus
		}
		if f.EventType != "" && frequentTypes[f.EventType] {
			score += frequentTypeBonus
		}
		if f.Borough != "" && frequentBoroughs[f.Borough] {
			score += frequentBoroughBonus
		}
		scores[f.ID] = score
	}

	ranked := make([]*event.Event, len(future))
	copy(ranked, future)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID] > scores[ranked[j].ID]
	})

	var result []*event.Event
	selected := make(map[int64]bool)
	for _, f := range ranked {
		if len(result) == limit || scores[f.ID] == 0 {
			break
		}
		result = append(result, f)
		selected[f.ID] = true
	}

	if len(result) < limit {
		var pool []*event.Event
		for _, f := range future {
			if !selected[f.ID] {
				pool = append(pool, f)
			}
		}
		e.rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		for _, f := range pool {
			if len(result) == limit {
				break
			}
			result = append(result, f)
		}
	}

	return result
}

// affinity builds the type and borough frequency tables from the saved
// events that exist in the candidate set, keeping only the most recent
// HistoryWindow saves when a window is configured.
func (e *Engine) affinity(savedIDs []int64, candidates []*event.Event) (map[string]int, map[string]int) {
	if e.HistoryWindow > 0 && len(savedIDs) > e.HistoryWindow {
		savedIDs = savedIDs[len(savedIDs)-e.HistoryWindow:]
	}

	byID := make(map[int64]*event.Event, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	typeCounts := make(map[string]int)
	boroughCounts := make(map[string]int)
	for _, id := range savedIDs {
		ev, ok := byID[id]
		if !ok {
			continue
		}
		if ev.EventType != "" {
			typeCounts[ev.EventType]++
		}
		if ev.Borough != "" {
			boroughCounts[ev.Borough]++
		}
	}

	return typeCounts, boroughCounts
}

// argmax returns the set of keys tied for the highest count.
func argmax(counts map[string]int) map[string]bool {
	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}

	top := make(map[string]bool)
	if max == 0 {
		return top
	}
	for k, n := range counts {
		if n == max {
			top[k] = true
		}
	}
	return top
}
