package services

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrTooFast         = errors.New("task completed too quickly")
	ErrDailyCapReached = errors.New("daily earning limit reached")
)

// GuardConfig holds the anti-abuse thresholds. Zero values disable a check.
type GuardConfig struct {
	MinTaskDuration       time.Duration
	MinCompletionInterval time.Duration
	DailyPointCap         int
}

type startKey struct {
	userID int64
	taskID int64
}

type dailyTally struct {
	day    string
	points int
}

// Guard rejects implausible task completions using timestamps the server
// observed itself. Nothing the client reports is trusted.
type Guard struct {
	cfg GuardConfig
	now func() time.Time

	mu     sync.Mutex
	starts map[startKey]time.Time
	last   map[int64]time.Time
	earned map[int64]dailyTally
}

func NewGuard(cfg GuardConfig) *Guard {
	return &Guard{
		cfg:    cfg,
		now:    time.Now,
		starts: make(map[startKey]time.Time),
		last:   make(map[int64]time.Time),
		earned: make(map[int64]dailyTally),
	}
}

// Start marks the moment the user began taskID.
func (g *Guard) Start(userID, taskID int64) time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.starts[startKey{userID, taskID}] = now
	return now
}

// Check reports whether crediting points for taskID is plausible right now.
func (g *Guard) Check(userID, taskID int64, points int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()

	if started, ok := g.starts[startKey{userID, taskID}]; ok && now.Sub(started) < g.cfg.MinTaskDuration {
		return ErrTooFast
	}
	if prev, ok := g.last[userID]; ok && now.Sub(prev) < g.cfg.MinCompletionInterval {
		return ErrTooFast
	}
	if g.cfg.DailyPointCap > 0 {
		tally := g.earned[userID]
		if tally.day != dayOf(now) {
			tally = dailyTally{}
		}
		if tally.points+points > g.cfg.DailyPointCap {
			return ErrDailyCapReached
		}
	}
	return nil
}

// Record notes a successful completion.
func (g *Guard) Record(userID, taskID int64, points int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	delete(g.starts, startKey{userID, taskID})
	g.last[userID] = now

	day := dayOf(now)
	tally := g.earned[userID]
	if tally.day != day {
		tally = dailyTally{day: day}
	}
	tally.points += points
	g.earned[userID] = tally
}

// Prune drops start markers older than maxAge and tallies from previous days.
// It returns the number of entries removed.
func (g *Guard) Prune(maxAge time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	today := dayOf(now)
	removed := 0
	for k, t := range g.starts {
		if now.Sub(t) > maxAge {
			delete(g.starts, k)
			removed++
		}
	}
	for id, t := range g.last {
		if now.Sub(t) > maxAge && now.Sub(t) > g.cfg.MinCompletionInterval {
			delete(g.last, id)
			removed++
		}
	}
	for id, tally := range g.earned {
		if tally.day != today {
			delete(g.earned, id)
			removed++
		}
	}
	return removed
}

func dayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
