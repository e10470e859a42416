package calendar

import "strings"

const defaultColor = "#6b7280"

// цвета плашек по названию курса
var courseColors = map[string]string{
	"bơi ếch":      "#3b82f6",
	"bơi sải":      "#10b981",
	"bơi ngửa":     "#f59e0b",
	"bơi bướm":     "#ef4444",
	"bơi cơ bản":   "#8b5cf6",
	"bơi nâng cao": "#ec4899",
	"bơi trẻ em":   "#14b8a6",
	"bơi người lớn": "#f97316",
}

func CourseColor(course string) string {
	if c, ok := courseColors[strings.ToLower(strings.TrimSpace(course))]; ok {
		return c
	}
	return defaultColor
}
