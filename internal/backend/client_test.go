package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() Session {
	return Session{TenantID: "t1", Token: "tok", UserID: "u1"}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, SlotCacheTTL: time.Minute})
}

const eventsJSON = `[
	{"_id":"e1","date":"2024-01-31T00:00:00.000Z",
	 "slot":[{"_id":"s1","title":"Ca sáng","start_time":450,"end_time":525}],
	 "classroom":{"_id":"c1","name":"Lớp A","course":{"_id":"k1","title":"Bơi ếch"}},
	 "pool":[{"_id":"p1","title":"Hồ Q1"}]},
	{"_id":"e2","date":"2024-02-01","slot":{"_id":"s2","title":"Ca chiều","start_time":900,"end_time":960},
	 "classroom":[],"pool":"p2"}
]`

func TestScheduleByMonth_HeadersAndShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/schedules", r.URL.Path)
		assert.Equal(t, "2024-01-15", r.URL.Query().Get("month"))
		assert.Equal(t, "t1", r.Header.Get("x-tenant-id"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":`+eventsJSON+`}`)
	})

	events, err := c.ScheduleByMonth(context.Background(), testSession(), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 2)

	e := events[0]
	assert.Equal(t, "2024-01-31", e.Day())
	slot, ok := e.Slot.First()
	require.True(t, ok)
	assert.Equal(t, "07:30 - 08:45", slot.TimeRange())
	cls, _ := e.Classroom.First()
	course, _ := cls.Course.First()
	assert.Equal(t, "Bơi ếch", course.Display())

	assert.Len(t, events[1].Slot, 1, "bare object becomes one element")
	assert.Empty(t, events[1].Classroom)
	assert.Empty(t, events[1].Pool, "id-only string is ignored")
}

func TestScheduleByRange_Bare(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-29", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-02-04", r.URL.Query().Get("end_date"))
		_, _ = io.WriteString(w, eventsJSON)
	})
	events, err := c.ScheduleByRange(context.Background(), testSession(),
		time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestSessionPreconditionsSkipNetwork(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	_, err := c.ScheduleByMonth(context.Background(), Session{Token: "x"}, time.Now())
	assert.ErrorIs(t, err, ErrNoTenant)
	err = c.DeleteSchedule(context.Background(), Session{TenantID: "t"}, "e1")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSlotDetail_Cached(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/slots/s1", r.URL.Path)
		_, _ = io.WriteString(w, `{"_id":"s1","title":"Ca sáng","start_time":450,"end_time":525,"duration":75,"schedules":[]}`)
	})
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	c.slots.now = func() time.Time { return now }
	day := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	d, err := c.SlotDetail(context.Background(), testSession(), "s1", day)
	require.NoError(t, err)
	assert.Equal(t, 75, d.Duration)
	_, err = c.SlotDetail(context.Background(), testSession(), "s1", day)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, c.PurgeExpired())
	_, err = c.SlotDetail(context.Background(), testSession(), "s1", day)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCreateAndDelete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/schedules/class":
			var in ClassScheduleInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, ClassScheduleInput{Date: "2024-01-31", Slot: "s1", Classroom: "c1", Pool: "p1"}, in)
			_, _ = io.WriteString(w, `{"_id":"new","date":"2024-01-31"}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/schedules/new":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})
	ev, err := c.CreateClassSchedule(context.Background(), testSession(),
		ClassScheduleInput{Date: "2024-01-31", Slot: "s1", Classroom: "c1", Pool: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "new", ev.ID)
	require.NoError(t, c.DeleteSchedule(context.Background(), testSession(), "new"))
}

func TestAPIErrorShapes(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		fields map[string]string
		generic string
	}{
		{"object errors", `{"message":"Validation failed","errors":{"title":"required","slug":["taken","too short"]}}`,
			map[string]string{"title": "required"}, "Validation failed: slug: taken; too short"},
		{"array errors", `{"errors":[{"field":"price","message":"must be positive"},{"message":"try later"}]}`,
			map[string]string{"price": "must be positive"}, "try later"},
		{"message list", `{"message":["title: must not be empty","price must be a number","something odd"]}`,
			map[string]string{"title": "must not be empty", "price": "price must be a number"}, "something odd"},
		{"plain text", `gateway exploded`, map[string]string{}, "gateway exploded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.CreateResource(context.Background(), testSession(), ResourceCourses, map[string]any{"title": ""})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)

			fields, generic := apiErr.MatchFields([]string{"title", "price"})
			assert.Equal(t, tc.fields, fields)
			assert.Equal(t, tc.generic, generic)
		})
	}
}

func TestResourcesAndLookups(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/courses":
			_, _ = io.WriteString(w, `{"data":[{"_id":"k1","title":"Bơi ếch"}]}`)
		case "/instructors":
			_, _ = io.WriteString(w, `[{"_id":"i1","username":"Thầy Nam"},{"_id":"i2","username":"Cô Lan"}]`)
		case "/pools":
			w.WriteHeader(http.StatusInternalServerError)
		case "/courses/k1":
			if r.Method == http.MethodPut {
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				body["_id"] = "k1"
				_ = json.NewEncoder(w).Encode(map[string]any{"data": body})
				return
			}
			_, _ = io.WriteString(w, `{"_id":"k1","title":"Bơi ếch"}`)
		}
	})
	ctx := context.Background()

	got, err := c.Lookups(ctx, testSession(), []ResourceKind{ResourceCourses, ResourceInstructors})
	require.NoError(t, err)
	assert.Len(t, got[ResourceCourses], 1)
	assert.Len(t, got[ResourceInstructors], 2)

	_, err = c.Lookups(ctx, testSession(), []ResourceKind{ResourceCourses, ResourcePools})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)

	rec, err := c.UpdateResource(ctx, testSession(), ResourceCourses, "k1", map[string]any{"title": "Bơi sải"})
	require.NoError(t, err)
	assert.Equal(t, "Bơi sải", rec["title"])

	rec, err = c.GetResource(ctx, testSession(), ResourceCourses, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", rec["_id"])
}

func TestUploadMedia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Hồ bơi", r.FormValue("title"))
		assert.Equal(t, "ảnh hồ", r.FormValue("alt"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "pool.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(b))
		_, _ = io.WriteString(w, `{"data":{"_id":"m1","path":[{"path":["","/uploads/pool.png"]}]}}`)
	})
	rec, err := c.UploadMedia(context.Background(), testSession(), MediaUpload{
		Filename: "pool.png", Content: strings.NewReader("PNGDATA"), Title: "Hồ bơi", Alt: "ảnh hồ",
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", rec.ID)
	assert.Equal(t, "/uploads/pool.png", rec.URL)
}

func TestNewSession(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	_, err := newSessionAt("", "tok", now)
	assert.ErrorIs(t, err, ErrNoTenant)
	_, err = newSessionAt("t1", "  ", now)
	assert.ErrorIs(t, err, ErrNoToken)

	tok := sign(jwt.MapClaims{"_id": "u9", "role": []any{"manager"}, "exp": now.Add(time.Hour).Unix()})
	s, err := newSessionAt("t1", "Bearer "+tok, now)
	require.NoError(t, err)
	assert.Equal(t, "u9", s.UserID)
	assert.Equal(t, "manager", s.Role)
	assert.Equal(t, tok, s.Token)
	assert.Equal(t, "t1/u9", s.Key())

	_, err = newSessionAt("t1", sign(jwt.MapClaims{"sub": "u1", "exp": now.Add(-time.Minute).Unix()}), now)
	assert.ErrorIs(t, err, ErrTokenExpired)

	s, err = newSessionAt("t1", "opaque-token", now)
	require.NoError(t, err)
	assert.Empty(t, s.UserID)
	assert.True(t, strings.HasPrefix(s.Key(), "t1/"))
}

func TestSlotTimeRange(t *testing.T) {
	// минуты от полуночи
	assert.Equal(t, "07:30 - 08:45", Slot{StartTime: 450, EndTime: 525}.TimeRange())
	// час и отдельные минуты
	assert.Equal(t, "07:30 - 08:15", Slot{StartTime: 7, StartMinute: 30, EndTime: 8, EndMinute: 15}.TimeRange())
	// start_time от 24 уже в минутах, start_minute не добавляется
	assert.Equal(t, "07:30 - 09:00", Slot{StartTime: 450, StartMinute: 30, EndTime: 540}.TimeRange())
}
