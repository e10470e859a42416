package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimlms/internal/backend"
)

// fakeAPI: бэкенд в памяти: create добавляет событие, delete удаляет
type fakeAPI struct {
	mu      sync.Mutex
	events  []backend.ScheduleEvent
	calls   []string
	failAll error
	nextID  int
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failAll
}

func (f *fakeAPI) inRange(from, to string) []backend.ScheduleEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backend.ScheduleEvent
	for _, e := range f.events {
		if d := e.Day(); d >= from && d <= to {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeAPI) ScheduleByMonth(_ context.Context, _ backend.Session, anchor time.Time) ([]backend.ScheduleEvent, error) {
	if err := f.record("month"); err != nil {
		return nil, err
	}
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return f.inRange(first.Format(dateLayout), last.Format(dateLayout)), nil
}

func (f *fakeAPI) ScheduleByRange(_ context.Context, _ backend.Session, start, end time.Time) ([]backend.ScheduleEvent, error) {
	if err := f.record("range"); err != nil {
		return nil, err
	}
	return f.inRange(start.Format(dateLayout), end.Format(dateLayout)), nil
}

func (f *fakeAPI) CreateClassSchedule(_ context.Context, _ backend.Session, in backend.ClassScheduleInput) (backend.ScheduleEvent, error) {
	if err := f.record("create"); err != nil {
		return backend.ScheduleEvent{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e := backend.ScheduleEvent{
		ID:   "new" + string(rune('0'+f.nextID)),
		Date: in.Date + "T00:00:00.000Z",
		Slot: backend.OneOrMany[backend.Slot]{{ID: in.Slot, Title: "Ca sáng", StartTime: 450, EndTime: 525}},
		Classroom: backend.OneOrMany[backend.Classroom]{{ID: in.Classroom, Name: "Lớp A",
			Course: backend.OneOrMany[backend.Ref]{{Title: "Bơi ếch"}}}},
		Pool: backend.OneOrMany[backend.Pool]{{ID: in.Pool, Title: "Hồ Q1"}},
	}
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeAPI) DeleteSchedule(_ context.Context, _ backend.Session, id string) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.events[:0]
	for _, e := range f.events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.events = kept
	return nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func event(id, date string) backend.ScheduleEvent {
	return backend.ScheduleEvent{ID: id, Date: date}
}

var session = backend.Session{TenantID: "t1", Token: "tok", UserID: "u1"}

func day(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

func TestEventsForDate_AcrossMonthBoundary(t *testing.T) {
	api := &fakeAPI{events: []backend.ScheduleEvent{
		event("a", "2024-01-31T00:00:00.000Z"),
		event("b", "2024-01-31T23:30:00+07:00"),
		event("c", "2024-02-01T00:00:00.000Z"),
		event("d", "2024-02-03"),
	}}
	c := New(api, session)
	require.NoError(t, c.LoadSchedule(context.Background(), WeekView(day("2024-01-29"), day("2024-02-04"))))

	ids := func(evs []DisplayEvent) []string {
		out := []string{}
		for _, e := range evs {
			out = append(out, e.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b"}, ids(c.EventsForDate("2024-01-31")))
	assert.Equal(t, []string{"c"}, ids(c.EventsForDate("2024-02-01T10:00:00Z")))
	assert.Empty(t, c.EventsForDate("2024-02-02"))
}

func TestAddClass_PlaceholderRejectedWithoutNetwork(t *testing.T) {
	api := &fakeAPI{}
	c := New(api, session)

	_, err := ParseSlotID("slot1")
	assert.ErrorIs(t, err, ErrInvalidSlotID)

	err = c.AddClass(context.Background(), AddClassInput{Date: "2024-01-31", Pool: "p1"})
	assert.ErrorIs(t, err, ErrSlotRequired)
	slot, _ := ParseSlotID("507f1f77bcf86cd799439011")
	assert.ErrorIs(t, c.AddClass(context.Background(), AddClassInput{Date: "2024-01-31", Slot: slot}), ErrPoolRequired)
	assert.ErrorIs(t, c.AddClass(context.Background(), AddClassInput{Slot: slot, Pool: "p1"}), ErrDateRequired)
	assert.ErrorIs(t, c.AddClass(context.Background(), AddClassInput{Date: "31/01/2024", Slot: slot, Pool: "p1"}), ErrDateRequired)

	assert.Zero(t, api.callCount())
}

func TestAddClass_CreatesAndRefetches(t *testing.T) {
	api := &fakeAPI{events: []backend.ScheduleEvent{event("old", "2024-01-10")}}
	c := New(api, session)
	ctx := context.Background()
	require.NoError(t, c.LoadSchedule(ctx, MonthView(day("2024-01-15"))))

	slot, err := ParseSlotID("507f1f77bcf86cd799439011")
	require.NoError(t, err)
	require.NoError(t, c.AddClass(ctx, AddClassInput{Date: "2024-01-31", Slot: slot, Classroom: "c1", Pool: "p1"}))

	assert.Equal(t, []string{"month", "create", "month"}, api.calls)
	evs := c.EventsForDate("2024-01-31")
	require.Len(t, evs, 1)
	assert.Equal(t, DisplayEvent{
		ID: "new1", Date: "2024-01-31", ClassName: "Lớp A", SlotTitle: "Ca sáng",
		TimeRange: "07:30 - 08:45", CourseName: "Bơi ếch", PoolName: "Hồ Q1", Color: "#3b82f6",
	}, evs[0])

	st := c.State()
	assert.Equal(t, 2, st.Events)
	assert.False(t, st.Adding)
	assert.False(t, st.Loading)
}

func TestAddClass_NoActiveViewLoadsMonthOfDate(t *testing.T) {
	api := &fakeAPI{}
	c := New(api, session)
	slot, _ := ParseSlotID("507f1f77bcf86cd799439011")
	require.NoError(t, c.AddClass(context.Background(), AddClassInput{Date: "2024-03-05", Slot: slot, Pool: "p1"}))

	st := c.State()
	require.NotNil(t, st.View)
	assert.Equal(t, ViewMonth, st.View.Kind)
	assert.Len(t, c.EventsForDate("2024-03-05"), 1)
}

func TestDeleteEvent_Refetches(t *testing.T) {
	api := &fakeAPI{events: []backend.ScheduleEvent{event("a", "2024-01-31"), event("b", "2024-01-31")}}
	c := New(api, session)
	ctx := context.Background()
	require.NoError(t, c.LoadSchedule(ctx, WeekView(day("2024-02-04"), day("2024-01-29"))))

	require.NoError(t, c.DeleteEvent(ctx, "a"))
	assert.Equal(t, []string{"range", "delete", "range"}, api.calls)
	evs := c.EventsForDate("2024-01-31")
	require.Len(t, evs, 1)
	assert.Equal(t, "b", evs[0].ID)
	assert.Equal(t, defaultColor, evs[0].Color)
}

func TestLoadSchedule_FailureKeepsStaleList(t *testing.T) {
	api := &fakeAPI{events: []backend.ScheduleEvent{event("a", "2024-01-31")}}
	c := New(api, session)
	ctx := context.Background()
	require.NoError(t, c.LoadSchedule(ctx, MonthView(day("2024-01-01"))))

	boom := errors.New("connection refused")
	api.failAll = boom
	err := c.LoadSchedule(ctx, MonthView(day("2024-02-01")))
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, boom)

	assert.Len(t, c.EventsForDate("2024-01-31"), 1, "previous events stay visible")
	st := c.State()
	assert.Contains(t, st.LastError, "connection refused")
	assert.Equal(t, day("2024-01-01"), st.View.Anchor, "view is not switched on failure")
	assert.False(t, st.Loading)

	err = c.DeleteEvent(ctx, "a")
	assert.ErrorIs(t, err, ErrDeleteFailed)
	assert.False(t, c.State().Deleting)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&fakeAPI{})
	a := r.For(session)
	assert.Same(t, a, r.For(session))
	other := session
	other.UserID = "u2"
	assert.NotSame(t, a, r.For(other))
	assert.Equal(t, 2, r.Len())

	assert.Zero(t, r.EvictIdle(time.Hour))
	assert.Equal(t, 2, r.EvictIdle(-time.Second))
	assert.Zero(t, r.Len())
}

func TestCourseColor(t *testing.T) {
	assert.Equal(t, "#10b981", CourseColor(" Bơi Sải "))
	assert.Equal(t, defaultColor, CourseColor("Yoga"))
}
