package entities

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// OrderField selects the note attribute used for sorting.
type OrderField int

const (
	OrderByDate OrderField = iota
	OrderByTitle
	OrderByColor
)

// OrderDirection is ascending or descending.
type OrderDirection int

const (
	Descending OrderDirection = iota
	Ascending
)

// ErrInvalidOrder is returned by ParseNoteOrder.
var ErrInvalidOrder = errors.New("invalid note order")

// NoteOrder is a (field, direction) sorting specification.
type NoteOrder struct {
	Field     OrderField
	Direction OrderDirection
}

// DefaultNoteOrder lists the newest notes first.
func DefaultNoteOrder() NoteOrder {
	return NoteOrder{Field: OrderByDate, Direction: Descending}
}

var fieldNames = map[OrderField]string{
	OrderByDate:  "date",
	OrderByTitle: "title",
	OrderByColor: "color",
}

var directionNames = map[OrderDirection]string{
	Ascending:  "asc",
	Descending: "desc",
}

func (f OrderField) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("OrderField(%d)", int(f))
}

func (d OrderDirection) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("OrderDirection(%d)", int(d))
}

// String renders the order as field:direction, e.g. "title:asc".
func (o NoteOrder) String() string {
	return o.Field.String() + ":" + o.Direction.String()
}

// ParseNoteOrder parses "field[:direction]". The direction defaults to desc.
func ParseNoteOrder(s string) (NoteOrder, error) {
	fieldPart, dirPart, hasDir := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")

	order := NoteOrder{Direction: Descending}
	found := false
	for f, name := range fieldNames {
		if name == fieldPart {
			order.Field = f
			found = true
			break
		}
	}
	if !found {
		return NoteOrder{}, fmt.Errorf("%w: unknown field %q", ErrInvalidOrder, fieldPart)
	}

	if hasDir {
		switch dirPart {
		case "asc", "ascending":
			order.Direction = Ascending
		case "desc", "descending":
			order.Direction = Descending
		default:
			return NoteOrder{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidOrder, dirPart)
		}
	}
	return order, nil
}

// Compare orders a before b (<0), after b (>0) or as equal (0).
func (o NoteOrder) Compare(a, b Note) int {
	var c int
	switch o.Field {
	case OrderByTitle:
		c = strings.Compare(a.Title, b.Title)
	case OrderByColor:
		c = cmp.Compare(a.Color, b.Color)
	default:
		c = cmp.Compare(a.Timestamp, b.Timestamp)
	}
	if o.Direction == Descending {
		return -c
	}
	return c
}

// Sort returns a stably sorted copy of notes. The input is left untouched.
func (o NoteOrder) Sort(notes []Note) []Note {
	sorted := slices.Clone(notes)
	if sorted == nil {
		sorted = []Note{}
	}
	slices.SortStableFunc(sorted, o.Compare)
	return sorted
}
