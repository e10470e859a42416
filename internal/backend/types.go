package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OneOrMany: поле, которое бэкенд отдаёт то объектом, то массивом из одного
// элемента (зависит от эндпоинта). Прочие формы (строка-id, число) дают пустой список.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*o = nil
		return nil
	}
	switch b[0] {
	case '[':
		var arr []T
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*o = arr
	case '{':
		var one T
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*o = OneOrMany[T]{one}
	default:
		*o = nil
	}
	return nil
}

// First: первый элемент или нулевое значение.
func (o OneOrMany[T]) First() (T, bool) {
	if len(o) == 0 {
		var zero T
		return zero, false
	}
	return o[0], true
}

type Ref struct {
	ID    string `json:"_id"`
	Title string `json:"title,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Display: подпись ссылки, сначала title, затем name.
func (r Ref) Display() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

type Slot struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	// StartTime/EndTime: смещение от полуночи в минутах. Старые слоты хранят
	// там час (0-23), а минуты отдельно в StartMinute/EndMinute.
	StartTime   int `json:"start_time"`
	StartMinute int `json:"start_minute"`
	EndTime     int `json:"end_time"`
	EndMinute   int `json:"end_minute"`
	Duration    int `json:"duration"`
}

// TimeRange: "HH:MM - HH:MM"
func (s Slot) TimeRange() string {
	return clock(offset(s.StartTime, s.StartMinute)) + " - " + clock(offset(s.EndTime, s.EndMinute))
}

func offset(t, minute int) int {
	if minute != 0 && t >= 0 && t < 24 {
		return t*60 + minute
	}
	return t
}

func clock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type Classroom struct {
	ID         string         `json:"_id"`
	Name       string         `json:"name"`
	Course     OneOrMany[Ref] `json:"course"`
	Instructor OneOrMany[Ref] `json:"instructor"`
}

type Pool struct {
	ID      string `json:"_id"`
	Title   string `json:"title"`
	Address string `json:"address,omitempty"`
}

type ScheduleEvent struct {
	ID        string               `json:"_id"`
	Date      string               `json:"date"`
	Slot      OneOrMany[Slot]      `json:"slot"`
	Classroom OneOrMany[Classroom] `json:"classroom"`
	Pool      OneOrMany[Pool]      `json:"pool"`
}

// Day: дата события без времени (YYYY-MM-DD)
func (e ScheduleEvent) Day() string {
	if len(e.Date) >= 10 {
		return e.Date[:10]
	}
	return e.Date
}

type SlotDetail struct {
	Slot
	Schedules []ScheduleEvent `json:"schedules"`
}

type ClassScheduleInput struct {
	Date      string `json:"date"`
	Slot      string `json:"slot"`
	Classroom string `json:"classroom"`
	Pool      string `json:"pool"`
}

type MediaRecord struct {
	ID    string `json:"_id"`
	Title string `json:"title,omitempty"`
	Alt   string `json:"alt,omitempty"`
	Path  any    `json:"path"`
	URL   string `json:"url"`
}

// ResourceKind: REST-ресурсы бэкенда, с которыми работает админка
type ResourceKind string

const (
	ResourceCourses     ResourceKind = "courses"
	ResourceNews        ResourceKind = "news"
	ResourceStudents    ResourceKind = "students"
	ResourceStaff       ResourceKind = "staff"
	ResourceClasses     ResourceKind = "classes"
	ResourcePools       ResourceKind = "pools"
	ResourceInstructors ResourceKind = "instructors"
)

var ResourceKinds = []ResourceKind{
	ResourceCourses, ResourceNews, ResourceStudents, ResourceStaff,
	ResourceClasses, ResourcePools, ResourceInstructors,
}

func (k ResourceKind) Valid() bool {
	for _, r := range ResourceKinds {
		if r == k {
			return true
		}
	}
	return false
}
