package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"swimlms/internal/calendar"
)

const dateLayout = "2006-01-02"

// GET /api/calendar?month=YYYY-MM-DD | ?start=YYYY-MM-DD&end=YYYY-MM-DD
// При ошибке загрузки в ответе остаётся прежний список событий.
func CalendarHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := parseView(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month or start/end (YYYY-MM-DD) required"})
			return
		}
		cal := srv.Calendars.For(sessionOf(c))
		if err := cal.LoadSchedule(c.Request.Context(), view); err != nil {
			srv.Log.Warn("schedule load failed", err, sessionOf(c))
			c.JSON(statusFor(err), gin.H{
				"error":  err.Error(),
				"toast":  srv.Messages.Localize(err),
				"events": cal.Events(),
				"state":  cal.State(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": cal.Events(), "state": cal.State()})
	}
}

func parseView(c *gin.Context) (calendar.View, bool) {
	if m := strings.TrimSpace(c.Query("month")); m != "" {
		anchor, err := time.Parse(dateLayout, m)
		if err != nil {
			return calendar.View{}, false
		}
		return calendar.MonthView(anchor), true
	}
	start, err1 := time.Parse(dateLayout, strings.TrimSpace(c.Query("start")))
	end, err2 := time.Parse(dateLayout, strings.TrimSpace(c.Query("end")))
	if err1 != nil || err2 != nil {
		return calendar.View{}, false
	}
	return calendar.WeekView(start, end), true
}

// GET /api/calendar/days/:date: события дня из уже загруженного окна
func CalendarDayHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		cal := srv.Calendars.For(sessionOf(c))
		c.JSON(http.StatusOK, gin.H{"date": c.Param("date"), "events": cal.EventsForDate(c.Param("date"))})
	}
}

type addClassReq struct {
	Date      string `json:"date"`
	Slot      string `json:"slot"`
	Classroom string `json:"classroom"`
	Pool      string `json:"pool"`
}

// POST /api/calendar/classes
func AddClassHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addClassReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}
		// заглушка вместо id слота = слот не выбран
		slot, _ := calendar.ParseSlotID(req.Slot)
		cal := srv.Calendars.For(sessionOf(c))
		err := cal.AddClass(c.Request.Context(), calendar.AddClassInput{
			Date:      req.Date,
			Slot:      slot,
			Classroom: req.Classroom,
			Pool:      req.Pool,
		})
		if err != nil {
			srv.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"events": cal.EventsForDate(req.Date),
			"state":  cal.State(),
			"toast":  "Đã thêm lớp vào lịch",
		})
	}
}

// DELETE /api/calendar/events/:id
func DeleteEventHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		cal := srv.Calendars.For(sessionOf(c))
		if err := cal.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
			srv.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": cal.State(), "toast": "Đã xoá lịch học"})
	}
}

// GET /api/calendar/slots/:id?date=YYYY-MM-DD
func SlotDetailHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		slot, err := calendar.ParseSlotID(c.Param("id"))
		if err != nil {
			srv.respondError(c, err)
			return
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(c.Query("date")))
		if err != nil {
			srv.respondError(c, calendar.ErrDateRequired)
			return
		}
		d, err := srv.Backend.SlotDetail(c.Request.Context(), sessionOf(c), slot.String(), date)
		if err != nil {
			srv.respondError(c, err)
			return
		}
		events := make([]calendar.DisplayEvent, 0, len(d.Schedules))
		for _, e := range d.Schedules {
			events = append(events, calendar.Display(e))
		}
		c.JSON(http.StatusOK, gin.H{
			"slot":       d.Slot,
			"time_range": d.TimeRange(),
			"date":       date.Format(dateLayout),
			"events":     events,
		})
	}
}
