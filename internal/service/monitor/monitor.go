package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/mizzouse/WeBot/internal/constant"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/mizzouse/WeBot/internal/service/botstate"
	"github.com/mizzouse/WeBot/internal/service/dispatcher"
	"github.com/mizzouse/WeBot/internal/service/marketclock"
	"github.com/mizzouse/WeBot/internal/service/portfolio"
	"github.com/mizzouse/WeBot/internal/service/tradebook"
	"github.com/mizzouse/WeBot/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxSleep     = time.Hour
	signalBuffer        = 16
)

type NowFunc func() time.Time

type Config struct {
	// PollInterval paces dispatch passes during tradeable phases.
	PollInterval time.Duration
	// MaxSleep caps the closed-market wait; the monitor never sleeps past the
	// next phase boundary either way.
	MaxSleep time.Duration
	StateKey string
}

type Params struct {
	Config     Config
	Clock      *marketclock.Clock
	Session    entity.BrokerSession
	Executor   entity.OrderExecutor
	Trades     *tradebook.Book
	Positions  *portfolio.Book
	Dispatcher *dispatcher.Dispatcher
	StateStore botstate.Store
	Jetstream  nats.JetStreamContext
	Now        NowFunc
}

// Monitor is the single long-running control loop: it polls the session clock,
// tracks the market phase, and triggers dispatch passes while the broker
// session stays logged in. The books it owns are never mutated by anything
// else while the loop runs.
type Monitor struct {
	cfg        Config
	clock      *marketclock.Clock
	session    entity.BrokerSession
	executor   entity.OrderExecutor
	trades     *tradebook.Book
	positions  *portfolio.Book
	dispatcher *dispatcher.Dispatcher
	stateStore botstate.Store
	js         nats.JetStreamContext
	now        NowFunc

	signals chan stampedBatch

	mu    sync.RWMutex
	phase entity.SessionPhase
}

// stampedBatch carries the offer instant so the loop can age out batches that
// sat in the buffer across a closed phase.
type stampedBatch struct {
	batch     entity.SignalBatch
	offeredAt time.Time
}

func New(params Params) *Monitor {
	cfg := params.Config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxSleep <= 0 {
		cfg.MaxSleep = defaultMaxSleep
	}
	if cfg.StateKey == "" {
		cfg.StateKey = "webot:monitor:state"
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Monitor{
		cfg:        cfg,
		clock:      params.Clock,
		session:    params.Session,
		executor:   params.Executor,
		trades:     params.Trades,
		positions:  params.Positions,
		dispatcher: params.Dispatcher,
		stateStore: params.StateStore,
		js:         params.Jetstream,
		now:        now,
		signals:    make(chan stampedBatch, signalBuffer),
		phase:      entity.PhaseClosed,
	}
}

// Phase is the monitor's current view of the market session.
func (m *Monitor) Phase() entity.SessionPhase {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.phase
}

// Offer hands a signal batch to the loop without blocking. When the buffer is
// full the batch is dropped; the signal source republishes on its own cadence.
func (m *Monitor) Offer(signal entity.SignalBatch) bool {
	select {
	case m.signals <- stampedBatch{batch: signal, offeredAt: m.now()}:
		return true
	default:
		logrus.Warn("signal buffer full, dropping batch")
		return false
	}
}

// Run executes the loop until the context is cancelled or the broker session
// reports logged out. It always unwinds cleanly: an interrupted wait leaves
// the books untouched.
func (m *Monitor) Run(ctx context.Context) error {
	m.setPhase(m.clock.PhaseAt(m.now()))
	logrus.WithField("phase", m.Phase().String()).Info("session monitor started")

	for {
		if ctx.Err() != nil {
			logrus.Info("session monitor cancelled")
			return nil
		}

		if !m.session.IsLoggedIn() {
			logrus.Info("broker session logged out, stopping session monitor")
			return nil
		}

		now := m.now()
		phase := m.clock.PhaseAt(now)
		if phase != m.Phase() {
			logrus.WithFields(logrus.Fields{
				"from": m.Phase().String(),
				"to":   phase.String(),
			}).Info("session phase changed")
			m.setPhase(phase)
			m.persistState(ctx)
		}

		if !phase.Tradeable() {
			wait := m.clock.UntilNextBoundary(now)
			if wait > m.cfg.MaxSleep {
				wait = m.cfg.MaxSleep
			}

			logrus.WithFields(logrus.Fields{
				"next_boundary": m.clock.NextBoundary(now),
				"wait":          wait.String(),
			}).Info("markets closed, waiting for next session boundary")

			if !m.wait(ctx, wait) {
				return nil
			}
			continue
		}

		if signal, ok := m.takeSignal(now.Add(-m.cfg.PollInterval)); ok {
			m.dispatchPass(ctx, phase, signal)
		}

		if !m.wait(ctx, m.cfg.PollInterval) {
			return nil
		}
	}
}

func (m *Monitor) dispatchPass(ctx context.Context, phase entity.SessionPhase, signal entity.SignalBatch) {
	responses, err := m.dispatcher.Dispatch(ctx, signal, m.trades, m.positions, m.executor)
	if err != nil {
		logrus.WithError(err).Error("dispatch pass failed")
	}

	if len(responses) == 0 {
		return
	}

	if m.js != nil {
		event := entity.OrderDispatchEvent{
			Phase:     phase.String(),
			Responses: responses,
		}
		if err := util.PublishEvent(m.js, constant.OrderStreamSubjectDispatched, event); err != nil {
			logrus.WithError(err).Error("failed to publish dispatch event")
		}
	}

	m.persistState(ctx)
}

func (m *Monitor) persistState(ctx context.Context) {
	if m.stateStore == nil {
		return
	}

	trades := make([]entity.TradeRequest, 0, m.trades.Len())
	for _, trade := range m.trades.List() {
		trades = append(trades, *trade)
	}

	state := botstate.BotState{
		Phase:     m.Phase().String(),
		Positions: m.positions.Positions(),
		Trades:    trades,
		UpdatedAt: m.now().UTC(),
	}

	if err := m.stateStore.Save(ctx, m.cfg.StateKey, state); err != nil {
		logrus.WithError(err).Error("failed to persist monitor state")
	}
}

// wait blocks for the duration or until cancellation; reports false when the
// context ended first.
func (m *Monitor) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// takeSignal drains the buffer and keeps only the newest batch offered at or
// after the cutoff; older batches are discarded as stale.
func (m *Monitor) takeSignal(cutoff time.Time) (entity.SignalBatch, bool) {
	var (
		latest stampedBatch
		found  bool
	)

	for {
		select {
		case signal := <-m.signals:
			if signal.offeredAt.Before(cutoff) {
				logrus.WithField("offered_at", signal.offeredAt).Warn("discarding stale signal batch")
				continue
			}
			latest = signal
			found = true
		default:
			return latest.batch, found
		}
	}
}

func (m *Monitor) setPhase(phase entity.SessionPhase) {
	m.mu.Lock()
	m.phase = phase
	m.mu.Unlock()
}

