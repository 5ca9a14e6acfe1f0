package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zircuit-labs/zkr-go-taskbridge/bridge"
	"github.com/zircuit-labs/zkr-go-taskbridge/log"
	"github.com/zircuit-labs/zkr-go-taskbridge/retry"
	"github.com/zircuit-labs/zkr-go-taskbridge/substrate"
)

type page int

const (
	pageLogin page = iota
	pageCourses
	pageLectures
)

// Key is a user input, independent of the terminal library.
type Key int

const (
	KeyNone Key = iota
	KeyEnter
	KeyBack
	KeyUp
	KeyDown
	KeyBackspace
	KeyText
)

// Input is one key press.
type Input struct {
	Key  Key
	Text string
}

// View is what a frame shows.
type View struct {
	Title  string
	Lines  []string
	Cursor int
	Status string
}

// App is the frame-driven model of the lecture browser. All methods are called from the
// frame loop and never block.
type App struct {
	rt        *substrate.Runtime
	catalogue *Catalogue
	user      string
	logger    *slog.Logger

	page     page
	selected int
	section  Section
	query    string
	status   string

	session     *bridge.Handle[bridge.Result[Session]]
	enrollments *bridge.Handle[bridge.Result[[]Section]]
	lectures    *bridge.Keyed[string, bridge.Result[[]Lecture]]
	search      *bridge.Handle[[]Lecture]
	retrier     *retry.Retrier
}

func newApp(rt *substrate.Runtime, catalogue *Catalogue, cfg demoConfig, logger *slog.Logger) (*App, error) {
	a := &App{
		rt:        rt,
		catalogue: catalogue,
		user:      cfg.User,
		logger:    logger,
	}
	onFailure := bridge.WithFailureHandler(a.fail)

	backoff, err := retry.Exponential(100*time.Millisecond, 2*time.Second, 2, retry.FullJitter)
	if err != nil {
		return nil, err
	}
	a.retrier = retry.NewRetrier(
		retry.WithBackoff(backoff),
		retry.WithMaxAttempts(4),
		retry.WithClock(rt.Clock()),
		retry.WithLogger(logger),
	)

	a.session = bridge.New[bridge.Result[Session]](rt, bridge.WithName("session"), onFailure)
	a.enrollments = bridge.New[bridge.Result[[]Section]](rt, bridge.WithName("enrollments"), onFailure)
	a.search = a.newSearch()

	a.lectures, err = bridge.NewKeyed[string, bridge.Result[[]Lecture]](rt, max(cfg.CachedSections, 1),
		bridge.WithName("lectures"), onFailure)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// fail keeps the UI running when a fire ended without a result.
func (a *App) fail(err error) {
	a.logger.Warn("background work lost", log.ErrAttr(err))
	a.status = "something went wrong, try again"
}

// Handle applies one input. It reports whether the user asked to quit.
func (a *App) Handle(in Input) bool {
	switch a.page {
	case pageLogin:
		switch in.Key {
		case KeyBack:
			return true
		case KeyEnter:
			if a.session.State().Kind() != bridge.Loading {
				a.status = ""
				user := a.user
				a.session.FireAsync(bridge.Fallible(func(ctx context.Context) (Session, error) {
					return a.catalogue.SignIn(ctx, user)
				}))
			}
		}

	case pageCourses:
		sections := a.sections()
		switch in.Key {
		case KeyBack:
			return true
		case KeyUp:
			a.selected = max(a.selected-1, 0)
		case KeyDown:
			a.selected = min(a.selected+1, max(len(sections)-1, 0))
		case KeyEnter:
			if a.selected < len(sections) {
				a.openSection(sections[a.selected])
			}
		}

	case pageLectures:
		switch in.Key {
		case KeyBack:
			a.page = pageCourses
			a.search.Close()
		case KeyEnter:
			a.loadLectures(true)
		case KeyBackspace:
			if a.query != "" {
				r := []rune(a.query)
				a.query = string(r[:len(r)-1])
				a.refilter()
			}
		case KeyText:
			a.query += in.Text
			a.refilter()
		}
	}
	return false
}

func (a *App) newSearch() *bridge.Handle[[]Lecture] {
	return bridge.New[[]Lecture](a.rt,
		bridge.WithName("search"),
		bridge.WithFailureHandler(a.fail),
		bridge.WithDebounceDelay(a.rt.DefaultDebounce()),
	)
}

func (a *App) openSection(s Section) {
	a.page = pageLectures
	a.section = s
	a.query = ""
	a.status = ""
	a.search.Close()
	a.search = a.newSearch()
	a.loadLectures(false)
}

func (a *App) currentSession() Session {
	res, _ := a.session.Get()
	s, _ := res.Unwrap()
	return s
}

func (a *App) sections() []Section {
	res, ok := a.enrollments.Get()
	if !ok {
		return nil
	}
	sections, err := res.Unwrap()
	if err != nil {
		return nil
	}
	return sections
}

func (a *App) currentLectures() ([]Lecture, bool) {
	res, ok := a.lectures.Handle(a.section.ID).Get()
	if !ok || !res.IsOk() {
		return nil, false
	}
	lectures, _ := res.Unwrap()
	return lectures, true
}

// loadLectures fires a fetch for the open section unless one is running, or unless a
// good result is cached and reload is false.
func (a *App) loadLectures(reload bool) {
	h := a.lectures.Handle(a.section.ID)
	s := h.State()
	if s.Kind() == bridge.Loading {
		return
	}
	if res, ok := s.Value(); ok && res.IsOk() && !reload {
		return
	}

	a.status = ""
	session := a.currentSession()
	id := a.section.ID
	h.FireAsync(bridge.Fallible(bridge.Retrying(a.retrier, func(ctx context.Context) ([]Lecture, error) {
		return a.catalogue.Lectures(ctx, session, id)
	})))
}

func (a *App) refilter() {
	all, ok := a.currentLectures()
	if !ok {
		return
	}
	query := a.query
	a.search.Fire(func() []Lecture {
		return filterLectures(all, query)
	})
}

// Frame polls every handle of the current page and describes what to draw.
func (a *App) Frame() View {
	var v View
	switch a.page {
	case pageLogin:
		v = a.loginView()
	case pageCourses:
		v = a.coursesView()
	default:
		v = a.lecturesView()
	}
	v.Status = a.status
	return v
}

func (a *App) loginView() View {
	v := View{Title: "Lecture browser", Cursor: -1}

	s := a.session.State()
	switch s.Kind() {
	case bridge.NotFired:
		v.Lines = []string{fmt.Sprintf("Press Enter to sign in as %q, Esc to quit", a.user)}
	case bridge.Loading:
		v.Lines = []string{"Signing in..."}
	case bridge.Ok:
		res, _ := s.Value()
		session, err := res.Unwrap()
		if err != nil {
			a.status = "sign in failed: " + err.Error()
			v.Lines = []string{"Press Enter to try again, Esc to quit"}
			return v
		}

		a.logger.Info("signed in", slog.String("user", session.User))
		a.page = pageCourses
		a.enrollments.FireAsync(bridge.Fallible(func(ctx context.Context) ([]Section, error) {
			return a.catalogue.Enrollments(ctx, session)
		}))
		return a.coursesView()
	}
	return v
}

func (a *App) coursesView() View {
	v := View{Title: "Choose a course", Cursor: -1}

	s := a.enrollments.State()
	res, ok := s.Value()
	switch {
	case !ok:
		v.Lines = []string{"Loading courses..."}
	case !res.IsOk():
		a.status = "could not load courses: " + res.Err().Error()
	default:
		sections, _ := res.Unwrap()
		for _, section := range sections {
			v.Lines = append(v.Lines, section.Name)
		}
		v.Cursor = a.selected
	}
	return v
}

func (a *App) lecturesView() View {
	v := View{Title: a.section.Name, Cursor: -1}
	v.Lines = []string{"Search: " + a.query, ""}

	s := a.lectures.Handle(a.section.ID).State()
	res, ok := s.Value()
	switch {
	case !ok, s.Kind() == bridge.Loading && !res.IsOk():
		v.Lines = append(v.Lines, "Loading lectures...")
		return v
	case !res.IsOk():
		a.status = "could not load lectures: " + res.Err().Error() + " (Enter retries)"
		return v
	}
	if s.Kind() == bridge.Loading {
		v.Title += " (refreshing)"
	}

	list, _ := res.Unwrap()
	if a.query != "" {
		search := a.search.State()
		if search.Kind() == bridge.NotFired {
			a.refilter()
		}
		if found, ok := search.Get(); ok {
			list = found
		}
		if search.Kind() != bridge.Ok {
			v.Title += " (searching)"
		}
	}

	for _, l := range list {
		v.Lines = append(v.Lines, fmt.Sprintf("%s  %-28s %s", l.Date.Format(time.DateOnly), l.Title, l.Duration))
	}
	if len(list) == 0 {
		v.Lines = append(v.Lines, "No lectures match.")
	}
	return v
}
