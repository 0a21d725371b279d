package credits

import (
	"fmt"
	"time"

	"github.com/inedit/inedit-service/internal/models"
)

const (
	PolicyLifetime = "lifetime"
	PolicyDaily    = "daily"
)

// Status is the read-only view of a user's generation allowance
type Status struct {
	Remaining           int             `json:"remaining"`
	Limit               int             `json:"limit"`
	Used                int             `json:"used"`
	Role                models.UserRole `json:"role"`
	IsPro               bool            `json:"is_pro"`
	Unlimited           bool            `json:"unlimited"`
	CanSelectDifficulty bool            `json:"can_select_difficulty"`
	CanUpgrade          bool            `json:"can_upgrade"`
	ResetsAt            *time.Time      `json:"resets_at,omitempty"`
}

// Counters are the user fields a caller persists after a successful generation
type Counters struct {
	CreditsUsed          int
	DailyGenerationCount int
	LastGenerationDate   *time.Time
}

// Policy evaluates and consumes generation credits. Implementations are pure;
// persisting Counters is the caller's job.
type Policy interface {
	Name() string
	Status(user *models.User, now time.Time) Status
	Consume(user *models.User, now time.Time) Counters
}

// NewPolicy builds the policy selected by configuration
func NewPolicy(name string, loc *time.Location) (Policy, error) {
	switch name {
	case PolicyLifetime, "":
		return LifetimePolicy{}, nil
	case PolicyDaily:
		if loc == nil {
			loc = time.Local
		}
		return DailyPolicy{Location: loc}, nil
	default:
		return nil, fmt.Errorf("unknown credit policy %q", name)
	}
}

func countersOf(user *models.User) Counters {
	return Counters{
		CreditsUsed:          user.CreditsUsed,
		DailyGenerationCount: user.DailyGenerationCount,
		LastGenerationDate:   user.LastGenerationDate,
	}
}

func baseStatus(role models.UserRole) Status {
	role = role.Normalize()
	return Status{
		Role:                role,
		IsPro:               IsProOrAbove(role),
		Unlimited:           IsAdmin(role),
		CanSelectDifficulty: IsProOrAbove(role),
		CanUpgrade:          role == models.RoleFree,
	}
}

// LifetimePolicy counts credits over the lifetime of the account
type LifetimePolicy struct{}

func (LifetimePolicy) Name() string { return PolicyLifetime }

func (LifetimePolicy) Status(user *models.User, _ time.Time) Status {
	st := baseStatus(user.Role)
	st.Limit = EffectiveLimit(user.Role, user.CreditsGranted)
	st.Used = user.CreditsUsed
	st.Remaining = RemainingCredits(user.Role, user.CreditsUsed, user.CreditsGranted)
	return st
}

func (LifetimePolicy) Consume(user *models.User, _ time.Time) Counters {
	c := countersOf(user)
	c.CreditsUsed++
	return c
}

// DailyPolicy resets the allowance at local midnight
type DailyPolicy struct {
	Location *time.Location
}

func (DailyPolicy) Name() string { return PolicyDaily }

func (p DailyPolicy) Status(user *models.User, now time.Time) Status {
	used := p.currentCount(user, now)
	resetsAt := StartOfDay(now, p.Location).AddDate(0, 0, 1)

	st := baseStatus(user.Role)
	st.Limit = RoleLimit(user.Role)
	st.Used = used
	st.Remaining = RemainingCredits(user.Role, used, nil)
	st.ResetsAt = &resetsAt
	return st
}

func (p DailyPolicy) Consume(user *models.User, now time.Time) Counters {
	c := countersOf(user)
	c.DailyGenerationCount = p.currentCount(user, now) + 1
	stamp := now
	c.LastGenerationDate = &stamp
	return c
}

// currentCount treats the stored counter as zero once the local day has rolled over
func (p DailyPolicy) currentCount(user *models.User, now time.Time) int {
	if user.LastGenerationDate == nil {
		return 0
	}
	if StartOfDay(*user.LastGenerationDate, p.Location).Before(StartOfDay(now, p.Location)) {
		return 0
	}
	return user.DailyGenerationCount
}

// StartOfDay returns 00:00 of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
