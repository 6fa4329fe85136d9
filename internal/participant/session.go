package participant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cargo-console/internal/bay"
	"cargo-console/internal/realtime"
)

var (
	ErrInactive      = errors.New("session is not active")
	ErrAlreadyActive = errors.New("session is already active")
	ErrDeparted      = errors.New("participant has left the room")
)

type DepartureReason string

const (
	DepartureKicked          DepartureReason = "kicked"
	DepartureSimulationEnded DepartureReason = "simulation_ended"
)

// Departure is an involuntary exit from the room view.
type Departure struct {
	Reason DepartureReason
	RoomID int
	UserID int
}

// Notice is a non-blocking report of a failed load or save.
type Notice struct {
	Operation string
	Err       error
}

type Notifier interface {
	Notify(Notice)
}

// LogNotifier writes notices to the default logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	slog.Warn("Ship bay operation failed", "component", "participant_session", "operation", n.Operation, "error", n.Err)
}

type Options struct {
	RoomID   int
	UserID   int
	Layout   Layout
	PageSize int
	Policy   bay.OccupancyPolicy

	Store    Store
	Events   EventSource
	Notifier Notifier

	// SaveTimeout bounds one save request. Zero means no bound.
	SaveTimeout time.Duration
	// OnChange runs after the grid changed. It is called without the
	// session lock held.
	OnChange func()
}

// Session is one participant's live view of a room: the grid, the dock
// pages, the save queue and the room subscription.
type Session struct {
	opts   Options
	logger *slog.Logger
	queue  *SaveQueue

	mu         sync.Mutex
	grid       *bay.Grid
	engine     *bay.Engine
	pages      *bay.Paginator
	channel    Subscription
	active     bool
	activating bool
	left       bool
	// reloadPending records a reload dropped while saves were outstanding.
	reloadPending bool
	generation uint64
	cancel     context.CancelFunc
	ctx        context.Context

	departOnce sync.Once
	departed   chan Departure
}

func NewSession(opts Options) (*Session, error) {
	if opts.RoomID <= 0 || opts.UserID <= 0 {
		return nil, fmt.Errorf("room and user are required")
	}
	if opts.Store == nil || opts.Events == nil {
		return nil, fmt.Errorf("store and event source are required")
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}

	grid, err := bay.NewGrid(opts.Layout.Config(), opts.Layout.Tokens())
	if err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	pages, err := bay.NewPaginator(grid.DockSlotCount(), opts.PageSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		opts:     opts,
		logger:   slog.With("component", "participant_session", "room_id", opts.RoomID, "user_id", opts.UserID),
		grid:     grid,
		pages:    pages,
		departed: make(chan Departure, 1),
	}
	s.queue = NewSaveQueue(s.save, func(err error) {
		s.opts.Notifier.Notify(Notice{Operation: "save", Err: err})
	}, opts.SaveTimeout)
	s.queue.OnIdle(s.retryReload)
	s.engine = bay.NewEngine(grid, s.queue, opts.Policy)
	return s, nil
}

func (s *Session) save(ctx context.Context, arena bay.Arena) error {
	return s.opts.Store.Save(ctx, s.opts.RoomID, s.opts.UserID, arena)
}

// Activate loads the stored arena and then joins the room channel. A failed
// load is reported and the session starts from the seeded dock; a failed
// join leaves the session inactive.
func (s *Session) Activate(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.left:
		s.mu.Unlock()
		return ErrDeparted
	case s.active, s.activating:
		s.mu.Unlock()
		return ErrAlreadyActive
	}
	s.activating = true
	s.mu.Unlock()

	arena, loadErr := s.opts.Store.Load(ctx, s.opts.RoomID, s.opts.UserID)
	if loadErr != nil {
		s.opts.Notifier.Notify(Notice{Operation: "load", Err: loadErr})
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.activating = false
	if s.left {
		s.mu.Unlock()
		cancel()
		return ErrDeparted
	}
	s.active = true
	s.generation++
	s.ctx = sessionCtx
	s.cancel = cancel
	if loadErr == nil {
		s.restoreLocked(arena)
	}
	s.mu.Unlock()

	channel, err := s.opts.Events.Subscribe(ctx, s.opts.RoomID, s.handleEvent, s.channelClosed)
	if err != nil {
		s.deactivate()
		return err
	}

	s.mu.Lock()
	if sessionCtx.Err() != nil {
		// Kicked or deactivated while the channel was opening.
		s.mu.Unlock()
		_ = channel.Close()
		return ErrInactive
	}
	s.channel = channel
	s.mu.Unlock()

	s.logger.Info("Session activated", "operation", "activate", "loaded", loadErr == nil)
	s.changed()
	return nil
}

func (s *Session) restoreLocked(arena bay.Arena) {
	report := s.grid.Restore(arena)
	s.pages.Resize(s.grid.DockSlotCount())

	if len(report.OutOfBounds) > 0 || len(report.Duplicates) > 0 || len(report.Registered) > 0 {
		s.logger.Warn("Stored arena did not match the layout",
			"operation", "restore",
			"out_of_bounds", len(report.OutOfBounds),
			"duplicates", len(report.Duplicates),
			"registered", len(report.Registered))
	}
}

// Begin marks a container as being dragged.
func (s *Session) Begin(token bay.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Begin(token)
}

// Drag applies a completed gesture. A successful move queues a save and
// returns without waiting for it.
func (s *Session) Drag(token bay.Token, source, target bay.Address) (bay.Outcome, error) {
	s.mu.Lock()
	if !s.active {
		s.engine.End()
		s.mu.Unlock()
		return bay.Outcome{}, ErrInactive
	}
	out, err := s.engine.Drop(bay.Gesture{Token: token, Source: source, Target: target})
	if out.Moved {
		// A reload that started before this move must not overwrite it.
		s.generation++
	}
	s.mu.Unlock()

	if out.Moved {
		s.changed()
	}
	return out, err
}

// Reload replaces the grid with the stored arena. The result is dropped when
// the session was deactivated, another reload or a local move happened, or
// local saves are still outstanding. A reload dropped for outstanding saves
// runs again once the save queue drains.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return false, ErrInactive
	}
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	arena, err := s.opts.Store.Load(ctx, s.opts.RoomID, s.opts.UserID)

	s.mu.Lock()
	current := s.active && s.generation == gen
	if err == nil && current && s.queue.Idle() {
		s.restoreLocked(arena)
		s.mu.Unlock()
		s.changed()
		return true, nil
	}
	if err == nil && s.active && !s.queue.Idle() {
		s.reloadPending = true
	}
	s.mu.Unlock()

	if err != nil && current {
		s.opts.Notifier.Notify(Notice{Operation: "load", Err: err})
		return false, err
	}
	return false, nil
}

func (s *Session) retryReload() {
	s.mu.Lock()
	ctx := s.ctx
	retry := s.reloadPending && s.active && ctx != nil
	s.reloadPending = false
	s.mu.Unlock()
	if !retry {
		return
	}

	go func() {
		if _, err := s.Reload(ctx); err != nil && !errors.Is(err, ErrInactive) {
			s.logger.Debug("Deferred reload failed", "operation", "reload", "error", err)
		}
	}()
}

func (s *Session) handleEvent(event realtime.Event) {
	if event.RoomID != s.opts.RoomID {
		return
	}

	switch event.Type {
	case realtime.EventSwapBays:
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if ctx == nil {
			return
		}
		go func() {
			if _, err := s.Reload(ctx); err != nil && !errors.Is(err, ErrInactive) {
				s.logger.Debug("Reload after swap_bays failed", "error", err)
			}
		}()
	case realtime.EventUserKicked:
		if event.UserID == s.opts.UserID {
			s.depart(DepartureKicked)
		}
	case realtime.EventEndSimulation:
		s.depart(DepartureSimulationEnded)
	}
}

func (s *Session) channelClosed(err error) {
	s.logger.Warn("Room subscription closed by server", "operation", "channel", "error", err)
}

// depart runs on the channel's read loop, so the channel is released on
// another goroutine.
func (s *Session) depart(reason DepartureReason) {
	s.departOnce.Do(func() {
		s.logger.Info("Leaving room", "operation", "depart", "reason", reason)
		s.mu.Lock()
		s.left = true
		s.mu.Unlock()
		s.departed <- Departure{Reason: reason, RoomID: s.opts.RoomID, UserID: s.opts.UserID}
		close(s.departed)

		if channel := s.deactivate(); channel != nil {
			go channel.Close()
		}
	})
}

// Departed delivers at most one Departure and is then closed.
func (s *Session) Departed() <-chan Departure {
	return s.departed
}

// Deactivate leaves the room. Queued saves still complete; use Drain to wait
// for them.
func (s *Session) Deactivate() {
	if channel := s.deactivate(); channel != nil {
		_ = channel.Close()
	}
}

func (s *Session) deactivate() Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.active = false
	s.reloadPending = false
	s.generation++
	if s.cancel != nil {
		s.cancel()
	}
	channel := s.channel
	s.channel = nil
	s.logger.Info("Session deactivated", "operation", "deactivate")
	return channel
}

// Drain waits for outstanding saves.
func (s *Session) Drain(ctx context.Context) error {
	return s.queue.Drain(ctx)
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) ChannelState() ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel == nil {
		return Disconnected
	}
	return s.channel.State()
}

func (s *Session) AddressOf(token bay.Token) (bay.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.AddressOf(token)
}

func (s *Session) Arena() bay.Arena {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Arena()
}

func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.Page()
}

func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.PageCount()
}

func (s *Session) SetPage(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.SetPage(page)
}

// DockSlot is one visible dock position. Token is empty for a free slot.
type DockSlot struct {
	Index int
	Token bay.Token
}

// VisibleDock lists the dock slots on the current page.
func (s *Session) VisibleDock() []DockSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleDockLocked()
}

func (s *Session) visibleDockLocked() []DockSlot {
	slots := s.grid.DockSlots()
	visible := s.pages.Visible()
	out := make([]DockSlot, 0, len(visible))
	for _, i := range visible {
		out = append(out, DockSlot{Index: i, Token: slots[i]})
	}
	return out
}

// View is a consistent snapshot for rendering.
type View struct {
	Config    bay.Config
	Arena     bay.Arena
	Dock      []DockSlot
	Page      int
	PageCount int
	Dragging  bay.Token
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	dragging, _ := s.engine.Active()

	return View{
		Config:    s.grid.Config(),
		Arena:     s.grid.Arena(),
		Dock:      s.visibleDockLocked(),
		Page:      s.pages.Page(),
		PageCount: s.pages.PageCount(),
		Dragging:  dragging,
	}
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}
