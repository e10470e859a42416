package render

import "strings"

// Kind: способ форматирования значения при показе изменений.
type Kind string

const (
	KindText         Kind = "text"
	KindNumber       Kind = "number"
	KindCurrency     Kind = "currency"
	KindBoolean      Kind = "boolean"
	KindDate         Kind = "date"
	KindDatetime     Kind = "datetime"
	KindArray        Kind = "array"
	KindReference    Kind = "reference"
	KindImage        Kind = "image"
	KindHTML         Kind = "html"
	KindCourseDetail Kind = "course_detail"
	KindFormJudge    Kind = "form_judge"
	KindJSON         Kind = "json"
	KindAuto         Kind = "auto"
)

var Kinds = []Kind{
	KindText, KindNumber, KindCurrency, KindBoolean, KindDate, KindDatetime, KindArray,
	KindReference, KindImage, KindHTML, KindCourseDetail, KindFormJudge, KindJSON, KindAuto,
}

func (k Kind) Valid() bool {
	for _, x := range Kinds {
		if x == k {
			return true
		}
	}
	return false
}

// ParseKind: неизвестное или пустое значение даёт auto
func ParseKind(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return KindAuto
	}
	return k
}
