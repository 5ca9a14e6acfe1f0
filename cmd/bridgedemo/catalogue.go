package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zircuit-labs/zkr-go-taskbridge/substrate"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/errcontext"
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors/stacktrace"
)

var (
	errBadCredentials = errors.New("invalid credentials")
	errUnavailable    = errors.New("lecture service unavailable")
	errUnknownSection = errors.New("unknown section")
)

type demoConfig struct {
	User           string
	Latency        time.Duration
	FailEvery      int `koanf:"fail_every"`
	CachedSections int `koanf:"cached_sections"`
}

// Session is the result of signing in.
type Session struct {
	User  string
	Token string
}

// Section is a course section the user is enrolled in.
type Section struct {
	ID   string
	Name string
}

// Lecture is one recording of a section.
type Lecture struct {
	ID       string
	Title    string
	Date     time.Time
	Duration time.Duration
}

// Catalogue is an in-memory lecture service that answers after a simulated network delay.
type Catalogue struct {
	rt        *substrate.Runtime
	latency   time.Duration
	failEvery int64
	calls     atomic.Int64
	sections  []Section
	lectures  map[string][]Lecture
}

func newCatalogue(rt *substrate.Runtime, cfg demoConfig) *Catalogue {
	c := &Catalogue{
		rt:        rt,
		latency:   cfg.Latency,
		failEvery: int64(cfg.FailEvery),
		lectures:  map[string][]Lecture{},
	}

	courses := []string{"Distributed Systems", "Compilers", "Linear Algebra", "Operating Systems"}
	topics := []string{"Introduction", "Consensus", "Scheduling", "Memory", "Parsing", "Eigenvalues", "Caching", "Review"}
	start := time.Date(2026, time.February, 2, 10, 0, 0, 0, time.UTC)
	for i, course := range courses {
		s := Section{ID: fmt.Sprintf("S%02d", i+1), Name: course}
		c.sections = append(c.sections, s)
		for week, topic := range topics {
			c.lectures[s.ID] = append(c.lectures[s.ID], Lecture{
				ID:       fmt.Sprintf("%s-L%02d", s.ID, week+1),
				Title:    fmt.Sprintf("Week %d: %s", week+1, topic),
				Date:     start.AddDate(0, 0, 7*week+i),
				Duration: 50 * time.Minute,
			})
		}
	}
	return c
}

func (c *Catalogue) wait(ctx context.Context) error {
	return c.rt.Sleep(ctx, c.latency)
}

// SignIn returns a session for user. An empty user is rejected.
func (c *Catalogue) SignIn(ctx context.Context, user string) (Session, error) {
	if err := c.wait(ctx); err != nil {
		return Session{}, err
	}
	if user == "" {
		return Session{}, errclass.WrapAs(stacktrace.Wrap(errBadCredentials), errclass.Persistent)
	}
	return Session{User: user, Token: fmt.Sprintf("%x", time.Now().UnixNano())}, nil
}

// Enrollments lists the sections of the signed in user.
func (c *Catalogue) Enrollments(ctx context.Context, _ Session) ([]Section, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.sections, nil
}

// Lectures lists the recordings of a section. Every failEvery-th call fails with a
// transient error.
func (c *Catalogue) Lectures(ctx context.Context, _ Session, sectionID string) ([]Lecture, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	if n := c.calls.Add(1); c.failEvery > 0 && n%c.failEvery == 0 {
		err := errclass.WrapAs(stacktrace.Wrap(errUnavailable), errclass.Transient)
		return nil, errcontext.Add(err, slog.String("section", sectionID), slog.Int64("call", n))
	}

	lectures, ok := c.lectures[sectionID]
	if !ok {
		err := errclass.WrapAs(stacktrace.Wrap(errUnknownSection), errclass.Persistent)
		return nil, errcontext.Add(err, slog.String("section", sectionID))
	}
	return lectures, nil
}

// filterLectures returns the lectures whose title contains every word of query,
// ignoring case.
func filterLectures(lectures []Lecture, query string) []Lecture {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return lectures
	}

	var out []Lecture
next:
	for _, l := range lectures {
		title := strings.ToLower(l.Title)
		for _, w := range words {
			if !strings.Contains(title, w) {
				continue next
			}
		}
		out = append(out, l)
	}
	return out
}
