package calendar

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SlotKey: ключ слота только для интерфейса ("slot1", "slot2", ...).
// В мутации не передаётся: AddClass принимает только SlotID.
type SlotKey string

// SlotID: сохранённый идентификатор слота бэкенда (ObjectID, 24 hex).
// Получить можно только через ParseSlotID.
type SlotID struct {
	oid bson.ObjectID
}

var ErrInvalidSlotID = errors.New("calendar: slot id is not a persisted identifier")

// ParseSlotID отвергает UI-ключи и всё, что не является ObjectID.
func ParseSlotID(s string) (SlotID, error) {
	s = strings.TrimSpace(s)
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return SlotID{}, fmt.Errorf("%w: %q", ErrInvalidSlotID, s)
	}
	return SlotID{oid: oid}, nil
}

func (id SlotID) IsZero() bool   { return id.oid.IsZero() }
func (id SlotID) String() string { return id.oid.Hex() }
