package marketclock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mizzouse/WeBot/internal/config"
	"github.com/mizzouse/WeBot/internal/entity"
)

const (
	defaultTimezone        = "America/New_York"
	defaultPreMarketOpen   = "04:00"
	defaultRegularOpen     = "09:30"
	defaultRegularClose    = "16:00"
	defaultPostMarketClose = "20:00"
)

// Clock maps instants onto market-session phases using fixed daily boundaries
// in the exchange's trading time zone. All phase intervals are half-open
// [open, close); the four phases partition the 24-hour day.
type Clock struct {
	location *time.Location

	// minute-of-day boundaries, strictly increasing
	preMarketOpen   int
	regularOpen     int
	regularClose    int
	postMarketClose int
}

func New(cfg config.MarketSessionConfig) (*Clock, error) {
	timezone := strings.TrimSpace(cfg.Timezone)
	if timezone == "" {
		timezone = defaultTimezone
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, entity.NewConfigurationError("market_session.timezone", err.Error())
	}

	preMarketOpen, err := parseClockMinute("market_session.pre_market_open", cfg.PreMarketOpen, defaultPreMarketOpen)
	if err != nil {
		return nil, err
	}
	regularOpen, err := parseClockMinute("market_session.regular_open", cfg.RegularOpen, defaultRegularOpen)
	if err != nil {
		return nil, err
	}
	regularClose, err := parseClockMinute("market_session.regular_close", cfg.RegularClose, defaultRegularClose)
	if err != nil {
		return nil, err
	}
	postMarketClose, err := parseClockMinute("market_session.post_market_close", cfg.PostMarketClose, defaultPostMarketClose)
	if err != nil {
		return nil, err
	}

	if !(preMarketOpen < regularOpen && regularOpen < regularClose && regularClose < postMarketClose) {
		return nil, entity.NewConfigurationError(
			"market_session",
			fmt.Sprintf("boundaries must be strictly increasing: %s < %s < %s < %s",
				cfg.PreMarketOpen, cfg.RegularOpen, cfg.RegularClose, cfg.PostMarketClose),
		)
	}

	return &Clock{
		location:        location,
		preMarketOpen:   preMarketOpen,
		regularOpen:     regularOpen,
		regularClose:    regularClose,
		postMarketClose: postMarketClose,
	}, nil
}

// PhaseAt resolves the phase for an instant. Pure and total: every instant
// maps to exactly one phase.
func (c *Clock) PhaseAt(t time.Time) entity.SessionPhase {
	local := t.In(c.location)
	minute := local.Hour()*60 + local.Minute()

	switch {
	case minute >= c.preMarketOpen && minute < c.regularOpen:
		return entity.PhasePreMarket
	case minute >= c.regularOpen && minute < c.regularClose:
		return entity.PhaseRegular
	case minute >= c.regularClose && minute < c.postMarketClose:
		return entity.PhasePostMarket
	default:
		return entity.PhaseClosed
	}
}

// NextBoundary returns the first phase-boundary instant strictly after t.
// After the post-market close the next boundary is the following day's
// pre-market open.
func (c *Clock) NextBoundary(t time.Time) time.Time {
	local := t.In(c.location)

	for _, boundary := range []int{c.preMarketOpen, c.regularOpen, c.regularClose, c.postMarketClose} {
		at := c.boundaryOn(local, 0, boundary)
		if at.After(local) {
			return at
		}
	}

	return c.boundaryOn(local, 1, c.preMarketOpen)
}

// boundaryOn resolves a minute-of-day boundary as a wall-clock instant on
// the given calendar day, DST-aware.
func (c *Clock) boundaryOn(day time.Time, dayOffset, minuteOfDay int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+dayOffset, minuteOfDay/60, minuteOfDay%60, 0, 0, c.location)
}

// UntilNextBoundary is the remaining wait before the phase can change.
func (c *Clock) UntilNextBoundary(t time.Time) time.Duration {
	return c.NextBoundary(t).Sub(t)
}

func (c *Clock) Location() *time.Location {
	return c.location
}

func parseClockMinute(field, value, fallback string) (int, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		raw = fallback
	}

	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, entity.NewConfigurationError(field, fmt.Sprintf("expected HH:MM, got %q", raw))
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, entity.NewConfigurationError(field, fmt.Sprintf("invalid hour in %q", raw))
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, entity.NewConfigurationError(field, fmt.Sprintf("invalid minute in %q", raw))
	}

	return hour*60 + minute, nil
}
