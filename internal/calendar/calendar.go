package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"swimlms/internal/backend"
)

const dateLayout = "2006-01-02"

var (
	ErrPoolRequired = errors.New("calendar: pool is not selected")
	ErrDateRequired = errors.New("calendar: date is required")
	ErrSlotRequired = errors.New("calendar: slot is required")
	ErrLoadFailed   = errors.New("calendar: schedule could not be loaded")
	ErrAddFailed    = errors.New("calendar: class could not be added")
	ErrDeleteFailed = errors.New("calendar: event could not be deleted")
)

// ScheduleAPI: то, что календарю нужно от бэкенда.
type ScheduleAPI interface {
	ScheduleByMonth(ctx context.Context, s backend.Session, anchor time.Time) ([]backend.ScheduleEvent, error)
	ScheduleByRange(ctx context.Context, s backend.Session, start, end time.Time) ([]backend.ScheduleEvent, error)
	CreateClassSchedule(ctx context.Context, s backend.Session, in backend.ClassScheduleInput) (backend.ScheduleEvent, error)
	DeleteSchedule(ctx context.Context, s backend.Session, id string) error
}

type ViewKind string

const (
	ViewMonth ViewKind = "month"
	ViewWeek  ViewKind = "week"
)

// View: окно, которое сейчас показывает календарь
type View struct {
	Kind   ViewKind  `json:"kind"`
	Anchor time.Time `json:"anchor,omitempty"`
	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
}

func MonthView(anchor time.Time) View { return View{Kind: ViewMonth, Anchor: anchor} }

func WeekView(start, end time.Time) View {
	if end.Before(start) {
		start, end = end, start
	}
	return View{Kind: ViewWeek, Start: start, End: end}
}

type DisplayEvent struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	ClassName  string `json:"class_name"`
	SlotTitle  string `json:"slot_title"`
	TimeRange  string `json:"time_range"`
	CourseName string `json:"course_name"`
	PoolName   string `json:"pool_name"`
	Color      string `json:"color"`
}

type AddClassInput struct {
	Date      string
	Slot      SlotID
	Classroom string
	Pool      string
}

type State struct {
	Events    int    `json:"events"`
	View      *View  `json:"view,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Loading   bool   `json:"loading"`
	Adding    bool   `json:"adding"`
	Deleting  bool   `json:"deleting"`
}

// Calendar: состояние календаря одного оператора. Список событий
// заменяется целиком после каждой успешной загрузки; после мутаций всегда
// полная перезагрузка активного окна. Повторов нет.
type Calendar struct {
	api ScheduleAPI

	mu       sync.Mutex
	session  backend.Session
	view     *View
	events   []backend.ScheduleEvent
	lastErr  error
	loading  bool
	adding   bool
	deleting bool
	lastUsed time.Time
}

func New(api ScheduleAPI, s backend.Session) *Calendar {
	return &Calendar{api: api, session: s, lastUsed: time.Now()}
}

// SetSession: токен оператора мог обновиться между запросами
func (c *Calendar) SetSession(s backend.Session) {
	c.mu.Lock()
	c.session = s
	c.lastUsed = time.Now()
	c.mu.Unlock()
}

func (c *Calendar) sessionSnapshot() backend.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	return c.session
}

// LoadSchedule при ошибке оставляет прежний список видимым и возвращает ErrLoadFailed.
func (c *Calendar) LoadSchedule(ctx context.Context, v View) error {
	s := c.sessionSnapshot()
	c.setFlag(&c.loading, true)
	defer c.setFlag(&c.loading, false)

	var (
		events []backend.ScheduleEvent
		err    error
	)
	switch v.Kind {
	case ViewWeek:
		events, err = c.api.ScheduleByRange(ctx, s, v.Start, v.End)
	default:
		v.Kind = ViewMonth
		events, err = c.api.ScheduleByMonth(ctx, s, v.Anchor)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = fmt.Errorf("%w: %w", ErrLoadFailed, err)
		return c.lastErr
	}
	c.events = events
	c.view = &v
	c.lastErr = nil
	return nil
}

// EventsForDate сравнивает только дату (YYYY-MM-DD), время игнорируется.
func (c *Calendar) EventsForDate(date string) []DisplayEvent {
	day := dayOf(date)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []DisplayEvent{}
	for _, e := range c.events {
		if e.Day() == day {
			out = append(out, Display(e))
		}
	}
	return out
}

// Events: все события текущего окна в порядке дат.
func (c *Calendar) Events() []DisplayEvent {
	c.mu.Lock()
	out := make([]DisplayEvent, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, Display(e))
	}
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (c *Calendar) AddClass(ctx context.Context, in AddClassInput) error {
	if strings.TrimSpace(in.Pool) == "" {
		return ErrPoolRequired
	}
	day := dayOf(in.Date)
	if _, err := time.Parse(dateLayout, day); err != nil {
		return ErrDateRequired
	}
	if in.Slot.IsZero() {
		return ErrSlotRequired
	}

	s := c.sessionSnapshot()
	c.setFlag(&c.adding, true)
	_, err := c.api.CreateClassSchedule(ctx, s, backend.ClassScheduleInput{
		Date:      day,
		Slot:      in.Slot.String(),
		Classroom: in.Classroom,
		Pool:      in.Pool,
	})
	c.setFlag(&c.adding, false)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrAddFailed, err))
	}

	// нет активного окна: показываем месяц добавленной даты
	v := c.activeView()
	if v == nil {
		anchor, _ := time.Parse(dateLayout, day)
		mv := MonthView(anchor)
		v = &mv
	}
	return c.LoadSchedule(ctx, *v)
}

// DeleteEvent удаляет на бэкенде и перезагружает активное окно; локально ничего не вычёркивается.
func (c *Calendar) DeleteEvent(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", ErrDeleteFailed)
	}
	s := c.sessionSnapshot()
	c.setFlag(&c.deleting, true)
	err := c.api.DeleteSchedule(ctx, s, id)
	c.setFlag(&c.deleting, false)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %w", ErrDeleteFailed, err))
	}
	if v := c.activeView(); v != nil {
		return c.LoadSchedule(ctx, *v)
	}
	return nil
}

func (c *Calendar) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{Events: len(c.events), Loading: c.loading, Adding: c.adding, Deleting: c.deleting}
	if c.view != nil {
		v := *c.view
		st.View = &v
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

func (c *Calendar) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

func (c *Calendar) activeView() *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return nil
	}
	v := *c.view
	return &v
}

func (c *Calendar) setFlag(f *bool, v bool) {
	c.mu.Lock()
	*f = v
	c.mu.Unlock()
}

func (c *Calendar) fail(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}

func dayOf(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

// Display: событие бэкенда в виде для календаря.
func Display(e backend.ScheduleEvent) DisplayEvent {
	d := DisplayEvent{ID: e.ID, Date: e.Day(), Color: defaultColor}
	if slot, ok := e.Slot.First(); ok {
		d.SlotTitle = slot.Title
		d.TimeRange = slot.TimeRange()
	}
	if cls, ok := e.Classroom.First(); ok {
		d.ClassName = cls.Name
		if course, ok := cls.Course.First(); ok {
			d.CourseName = course.Display()
		}
	}
	if pool, ok := e.Pool.First(); ok {
		d.PoolName = pool.Title
	}
	d.Color = CourseColor(d.CourseName)
	return d
}
