package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-scheduler/internal/models"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
	"github.com/noah-isme/timetable-scheduler/pkg/jobs"
)

// GenerateOptions bounds and shapes one generation run.
type GenerateOptions struct {
	MaxAttempts int
	Randomize   bool
	// Seed makes shuffles reproducible; zero picks a time based seed.
	Seed int64
	// Workers > 1 runs randomized attempts concurrently.
	Workers int
	// MaxNodes caps recursion nodes per attempt; zero means unbounded.
	MaxNodes int
	// TimeBudget caps wall-clock time across all attempts; zero means unbounded.
	TimeBudget time.Duration
}

// GenerationResult is the outcome of a run. Incomplete runs are results, not errors.
type GenerationResult struct {
	Timetable *models.Timetable
	Complete  bool
	Requested int
	Placed    int
	Attempts  int
	Deficits  map[string]int
	Duration  time.Duration
}

// OptimizationStats compares instructor idle minutes before and after an optimization pass.
type OptimizationStats struct {
	Before   int  `json:"gap_minutes_before"`
	After    int  `json:"gap_minutes_after"`
	Improved bool `json:"improved"`
}

type schedulerMetrics interface {
	ObserveGeneration(outcome string, attempts, placed, deficit int, duration time.Duration)
}

// TimetableScheduler places subject obligations with randomized, restartable backtracking.
type TimetableScheduler struct {
	catalog *models.Catalog
	checker *PlacementChecker
	logger  *zap.Logger
	metrics schedulerMetrics
	newID   func() string
}

// NewTimetableScheduler wires a scheduler for a catalog.
func NewTimetableScheduler(catalog *models.Catalog, logger *zap.Logger, metrics schedulerMetrics) *TimetableScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableScheduler{
		catalog: catalog,
		checker: NewPlacementChecker(catalog),
		logger:  logger,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// Checker exposes the placement rules the scheduler searches under.
func (s *TimetableScheduler) Checker() *PlacementChecker {
	return s.checker
}

type obligation struct {
	subject *models.Subject
	id      string
}

type attemptOutcome struct {
	index     int
	complete  bool
	best      *models.Timetable
	placed    int
	nodes     int
	exhausted bool
}

// Generate seeds the fixed sessions and searches for placements of every remaining obligation.
func (s *TimetableScheduler) Generate(ctx context.Context, fixed []*models.ScheduledSession, opts GenerateOptions) (*GenerationResult, error) {
	started := time.Now()
	seed, err := s.seedFixed(fixed)
	if err != nil {
		return nil, err
	}

	fixedCounts := seed.CountBySubject()
	var obligations []obligation
	for _, subject := range s.catalog.Subjects() {
		for i := fixedCounts[subject.ID]; i < subject.RequiredSessions(); i++ {
			obligations = append(obligations, obligation{subject: subject})
		}
	}

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if !opts.Randomize {
		// Without shuffling every attempt replays the same trajectory.
		opts.MaxAttempts = 1
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}

	var outcome attemptOutcome
	var attempts int
	if opts.Workers > 1 && opts.MaxAttempts > 1 {
		outcome, attempts = s.runParallel(ctx, seed, obligations, opts)
	} else {
		outcome, attempts = s.runSerial(ctx, seed, obligations, opts)
	}

	best := outcome.best
	if best == nil {
		best = seed.Clone()
	}
	result := &GenerationResult{
		Timetable: best,
		Complete:  outcome.complete,
		Requested: len(obligations),
		Placed:    best.Len() - seed.Len(),
		Attempts:  attempts,
		Deficits:  s.deficits(best),
		Duration:  time.Since(started),
	}

	deficit := result.Requested - result.Placed
	outcomeLabel := "complete"
	if !result.Complete {
		outcomeLabel = "partial"
		s.logger.Warn("timetable generation incomplete",
			zap.Int("requested", result.Requested),
			zap.Int("placed", result.Placed),
			zap.Int("attempts", attempts),
			zap.Any("deficits", result.Deficits),
		)
	}
	s.logger.Info("timetable generated",
		zap.Int("requested", result.Requested),
		zap.Int("placed", result.Placed),
		zap.Int("fixed", seed.Len()),
		zap.Int("attempts", attempts),
		zap.Duration("duration", result.Duration),
	)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(outcomeLabel, attempts, result.Placed, deficit, result.Duration)
	}
	return result, nil
}

func (s *TimetableScheduler) seedFixed(fixed []*models.ScheduledSession) (*models.Timetable, error) {
	seed := models.NewTimetable()
	seen := make(map[string]struct{}, len(fixed))
	for _, session := range fixed {
		if session == nil || session.Subject == nil || session.Room == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "fixed session requires subject and room")
		}
		if session.ID != "" {
			if _, dup := seen[session.ID]; dup {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate fixed session id %s", session.ID))
			}
			seen[session.ID] = struct{}{}
		}
		if _, ok := s.catalog.Subject(session.Subject.ID); !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("unknown subject %s", session.Subject.ID))
		}
		if _, ok := s.catalog.Room(session.Room.ID); !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("unknown room %s", session.Room.ID))
		}
		if err := session.Slot.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fixed session slot")
		}
		pinned := *session
		pinned.Fixed = true
		if pinned.ID == "" {
			pinned.ID = s.newID()
		}
		if pinned.Date == nil {
			pinned.Date = s.catalog.DateFor(pinned.Week, pinned.Slot.Day)
		}
		seed.Insert(&pinned)
	}
	return seed, nil
}

func (s *TimetableScheduler) runSerial(ctx context.Context, seed *models.Timetable, obligations []obligation, opts GenerateOptions) (attemptOutcome, int) {
	var best attemptOutcome
	best.placed = -1
	attempts := 0
	for i := 0; i < opts.MaxAttempts; i++ {
		if ctx.Err() != nil {
			break
		}
		out := s.runAttempt(ctx, i, seed, obligations, opts)
		attempts++
		best = pickBetter(best, out)
		if out.complete {
			break
		}
	}
	return best, attempts
}

// runParallel fans attempts out over a worker queue; the first complete attempt cancels the rest.
func (s *TimetableScheduler) runParallel(ctx context.Context, seed *models.Timetable, obligations []obligation, opts GenerateOptions) (attemptOutcome, int) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan attemptOutcome, opts.MaxAttempts)
	handler := func(jobCtx context.Context, job jobs.Job) (err error) {
		index, _ := job.Payload.(int)
		// a crashed attempt still reports, otherwise the collector waits for it forever
		defer func() {
			if r := recover(); r != nil {
				results <- attemptOutcome{index: index, placed: -1}
				err = fmt.Errorf("timetable attempt %d panicked: %v", index, r)
			}
		}()
		// each attempt clones the seed, no working state is shared
		results <- s.runAttempt(jobCtx, index, seed, obligations, opts)
		return nil
	}
	queue := jobs.NewQueue("timetable-attempts", handler, jobs.QueueConfig{
		Workers:    opts.Workers,
		BufferSize: opts.Workers * 2,
		MaxRetries: -1,
		Logger:     s.logger,
	})
	queue.Start(runCtx)

	go func() {
		for i := 0; i < opts.MaxAttempts; i++ {
			if err := queue.Enqueue(jobs.Job{ID: strconv.Itoa(i), Type: "timetable_attempt", Payload: i}); err != nil {
				return
			}
		}
	}()

	var best attemptOutcome
	best.placed = -1
	attempts := 0
collect:
	for attempts < opts.MaxAttempts {
		select {
		case out := <-results:
			attempts++
			best = pickBetter(best, out)
			if out.complete {
				break collect
			}
		case <-runCtx.Done():
			break collect
		}
	}
	cancel()
	queue.Stop()

	// attempts interrupted by cancellation still report their deepest partial
	for {
		select {
		case out := <-results:
			attempts++
			best = pickBetter(best, out)
		default:
			return best, attempts
		}
	}
}

func pickBetter(current, candidate attemptOutcome) attemptOutcome {
	if current.complete {
		return current
	}
	if candidate.complete || candidate.placed > current.placed {
		return candidate
	}
	return current
}

func (s *TimetableScheduler) runAttempt(ctx context.Context, index int, seed *models.Timetable, obligations []obligation, opts GenerateOptions) attemptOutcome {
	order := make([]obligation, len(obligations))
	copy(order, obligations)
	if opts.Randomize {
		rng := rand.New(rand.NewSource(opts.Seed + int64(index)))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	search := &backtracker{
		ctx:         ctx,
		scheduler:   s,
		working:     seed.Clone(),
		obligations: order,
		maxNodes:    opts.MaxNodes,
		bestPlaced:  -1,
	}
	complete := search.place(0)
	out := attemptOutcome{
		index:     index,
		complete:  complete,
		nodes:     search.nodes,
		exhausted: search.aborted,
	}
	if complete {
		out.best = search.working
		out.placed = len(order)
	} else {
		out.best = search.best
		out.placed = search.bestPlaced
	}
	s.logger.Debug("timetable attempt finished",
		zap.Int("attempt", index),
		zap.Bool("complete", complete),
		zap.Int("placed", out.placed),
		zap.Int("nodes", search.nodes),
		zap.Bool("budget_exhausted", search.aborted),
	)
	return out
}

type candidateOrder func(subject *models.Subject, candidates []*models.ScheduledSession, working *models.Timetable)

type backtracker struct {
	ctx         context.Context
	scheduler   *TimetableScheduler
	working     *models.Timetable
	obligations []obligation
	order       candidateOrder

	nodes    int
	maxNodes int
	aborted  bool

	best       *models.Timetable
	bestPlaced int
}

func (b *backtracker) place(depth int) bool {
	if depth > b.bestPlaced {
		b.bestPlaced = depth
		b.best = b.working.Clone()
	}
	if depth == len(b.obligations) {
		return true
	}
	if b.aborted {
		return false
	}
	b.nodes++
	if b.maxNodes > 0 && b.nodes > b.maxNodes {
		b.aborted = true
		return false
	}
	if b.nodes%64 == 0 && b.ctx.Err() != nil {
		b.aborted = true
		return false
	}

	next := b.obligations[depth]
	for _, candidate := range b.candidates(next.subject) {
		candidate.ID = next.id
		if candidate.ID == "" {
			candidate.ID = b.scheduler.newID()
		}
		b.working.Insert(candidate)
		if b.place(depth + 1) {
			return true
		}
		b.working.Pop()
		if b.aborted {
			return false
		}
	}
	return false
}

// candidates enumerates weeks, blocks, slots then rooms in catalog order and keeps the legal ones.
func (b *backtracker) candidates(subject *models.Subject) []*models.ScheduledSession {
	catalog := b.scheduler.catalog
	var out []*models.ScheduledSession
	for _, week := range catalog.Weeks() {
		key := week.Key()
		for _, block := range week.Blocks {
			for _, blockSlot := range block.Slots {
				slot, fits := subject.SessionSlot(blockSlot)
				if !fits {
					continue
				}
				date := catalog.DateFor(key, slot.Day)
				for _, room := range catalog.Rooms() {
					candidate := &models.ScheduledSession{
						Subject: subject,
						Slot:    slot,
						Room:    room,
						Week:    key,
						BlockID: block.ID,
						Date:    date,
					}
					if !b.scheduler.checker.ValidPlacement(candidate, b.working) {
						continue
					}
					out = append(out, candidate)
				}
			}
		}
	}
	if b.order != nil {
		b.order(subject, out, b.working)
	}
	return out
}

// deficits is nil when every subject reached its requirement.
func (s *TimetableScheduler) deficits(t *models.Timetable) map[string]int {
	counts := t.CountBySubject()
	var deficits map[string]int
	for _, subject := range s.catalog.Subjects() {
		if missing := subject.RequiredSessions() - counts[subject.ID]; missing > 0 {
			if deficits == nil {
				deficits = make(map[string]int)
			}
			deficits[subject.ID] = missing
		}
	}
	return deficits
}

// Optimize re-places every non-fixed session preferring days the instructors already teach and earlier starts.
// The input is returned unchanged unless every session is re-placed without increasing idle time.
func (s *TimetableScheduler) Optimize(ctx context.Context, t *models.Timetable, maxNodes int) (*models.Timetable, OptimizationStats) {
	before := GapPenalty(t)
	stats := OptimizationStats{Before: before, After: before}

	seed := models.NewTimetable()
	var obligations []obligation
	for _, session := range t.Sessions() {
		if session.Fixed {
			seed.Insert(session)
			continue
		}
		obligations = append(obligations, obligation{subject: session.Subject, id: session.ID})
	}
	if len(obligations) == 0 {
		return t, stats
	}

	search := &backtracker{
		ctx:         ctx,
		scheduler:   s,
		working:     seed,
		obligations: obligations,
		order:       compactOrder,
		maxNodes:    maxNodes,
		bestPlaced:  -1,
	}
	if !search.place(0) {
		s.logger.Debug("optimization could not re-place all sessions", zap.Int("placed", search.bestPlaced), zap.Int("sessions", len(obligations)))
		return t, stats
	}

	after := GapPenalty(search.working)
	if after > before {
		return t, stats
	}
	stats.After = after
	stats.Improved = after < before
	return search.working, stats
}

// compactOrder ranks candidates on days an instructor already teaches first, then by earliest start.
func compactOrder(subject *models.Subject, candidates []*models.ScheduledSession, working *models.Timetable) {
	teaching := make(map[models.WeekKey]map[models.DayOfWeek]bool)
	for _, session := range working.Sessions() {
		if session.Subject == nil || !session.Subject.SharesInstructor(subject) {
			continue
		}
		if teaching[session.Week] == nil {
			teaching[session.Week] = make(map[models.DayOfWeek]bool)
		}
		teaching[session.Week][session.Slot.Day] = true
	}
	rank := func(c *models.ScheduledSession) int {
		if teaching[c.Week][c.Slot.Day] {
			return 0
		}
		return 1
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := rank(candidates[i]), rank(candidates[j])
		if ri != rj {
			return ri < rj
		}
		return candidates[i].Slot.StartMinute < candidates[j].Slot.StartMinute
	})
}

type gapKey struct {
	week       models.WeekKey
	instructor string
	day        models.DayOfWeek
}

// GapPenalty sums idle minutes between consecutive sessions of each instructor on each day.
func GapPenalty(t *models.Timetable) int {
	grouped := make(map[gapKey][]models.TimeSlot)
	for _, session := range t.Sessions() {
		if session.Subject == nil {
			continue
		}
		for _, instructorID := range session.Subject.InstructorIDs {
			key := gapKey{week: session.Week, instructor: instructorID, day: session.Slot.Day}
			grouped[key] = append(grouped[key], session.Slot)
		}
	}
	penalty := 0
	for _, slots := range grouped {
		if len(slots) < 2 {
			continue
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].StartMinute < slots[j].StartMinute })
		for i := 0; i < len(slots)-1; i++ {
			if gap := slots[i+1].StartMinute - slots[i].End(); gap > 0 {
				penalty += gap
			}
		}
	}
	return penalty
}
