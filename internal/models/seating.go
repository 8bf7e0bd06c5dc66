package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const tablePrefix = "table_"

// TableID identifies a table, e.g. "table_3"
type TableID string

// TableName builds the identifier of table n (1-based)
func TableName(n int) TableID {
	return TableID(tablePrefix + strconv.Itoa(n))
}

// ParseTableID returns the table number encoded in id.
func ParseTableID(id string) (int, bool) {
	if !strings.HasPrefix(id, tablePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, tablePrefix))
	if err != nil || n < 1 || string(TableName(n)) != id {
		return 0, false
	}
	return n, true
}

// Number returns the table number, or 0 for a malformed id
func (t TableID) Number() int {
	n, _ := ParseTableID(string(t))
	return n
}

// DisplayName returns "Table N"
func (t TableID) DisplayName() string {
	if n := t.Number(); n > 0 {
		return fmt.Sprintf("Table %d", n)
	}
	return "Unknown Table"
}

// SeatSlot is an occupied seat. A nil *SeatSlot is an empty seat.
// The names are a snapshot taken when the seat was claimed.
type SeatSlot struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Surname  string `json:"surname"`
}

// DisplayName returns the occupant's name as shown on the chart
func (s SeatSlot) DisplayName() string {
	return strings.TrimSpace(s.FullName + " " + s.Surname)
}

// Layout is the fixed seating grid: Tables tables with Capacity seats each
type Layout struct {
	Tables   int
	Capacity int
}

// DefaultLayout is ten tables of ten seats
var DefaultLayout = Layout{Tables: 10, Capacity: 10}

// Contains reports whether table/seat address a slot of the layout
func (l Layout) Contains(table TableID, seat int) bool {
	n := table.Number()
	return n >= 1 && n <= l.Tables && seat >= 0 && seat < l.Capacity
}

// Dataset is the whole persisted state; it is loaded and saved as one unit.
type Dataset struct {
	Guests map[string]GuestRecord  `json:"guests"`
	Tables map[TableID][]*SeatSlot `json:"tables"`
}

// NewDataset returns an empty registry and an all-empty grid
func NewDataset(layout Layout) *Dataset {
	d := &Dataset{
		Guests: make(map[string]GuestRecord),
		Tables: make(map[TableID][]*SeatSlot, layout.Tables),
	}
	for i := 1; i <= layout.Tables; i++ {
		d.Tables[TableName(i)] = make([]*SeatSlot, layout.Capacity)
	}
	return d
}

// Clone returns a deep copy of d
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Guests: make(map[string]GuestRecord, len(d.Guests)),
		Tables: make(map[TableID][]*SeatSlot, len(d.Tables)),
	}
	for k, v := range d.Guests {
		c.Guests[k] = v
	}
	for id, seats := range d.Tables {
		cs := make([]*SeatSlot, len(seats))
		for i, s := range seats {
			if s != nil {
				slot := *s
				cs[i] = &slot
			}
		}
		c.Tables[id] = cs
	}
	return c
}

// TableIDs returns the table identifiers ordered by table number
func (d *Dataset) TableIDs() []TableID {
	ids := make([]TableID, 0, len(d.Tables))
	for id := range d.Tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, nj := ids[i].Number(), ids[j].Number()
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Slot returns the slot at table/seat and whether the address exists
func (d *Dataset) Slot(table TableID, seat int) (*SeatSlot, bool) {
	seats, ok := d.Tables[table]
	if !ok || seat < 0 || seat >= len(seats) {
		return nil, false
	}
	return seats[seat], true
}

// FindSeat returns the first slot occupied by email, scanning tables in order.
func (d *Dataset) FindSeat(email string) (TableID, int, bool) {
	for _, id := range d.TableIDs() {
		for i, s := range d.Tables[id] {
			if s != nil && s.Email == email {
				return id, i, true
			}
		}
	}
	return "", 0, false
}

// Release empties every slot occupied by email and returns how many were freed
func (d *Dataset) Release(email string) int {
	freed := 0
	for _, seats := range d.Tables {
		for i, s := range seats {
			if s != nil && s.Email == email {
				seats[i] = nil
				freed++
			}
		}
	}
	return freed
}

// Normalize fills in missing maps and any table of the layout that is absent,
// so documents written with a smaller grid keep loading.
func (d *Dataset) Normalize(layout Layout) {
	if d.Guests == nil {
		d.Guests = make(map[string]GuestRecord)
	}
	if d.Tables == nil {
		d.Tables = make(map[TableID][]*SeatSlot, layout.Tables)
	}
	for i := 1; i <= layout.Tables; i++ {
		id := TableName(i)
		seats := d.Tables[id]
		if len(seats) < layout.Capacity {
			grown := make([]*SeatSlot, layout.Capacity)
			copy(grown, seats)
			d.Tables[id] = grown
		}
	}
}

// Validate checks the seating invariants: table ids are well formed and no
// guest occupies more than one slot.
func (d *Dataset) Validate() error {
	seen := make(map[string]string)
	for id, seats := range d.Tables {
		if _, ok := ParseTableID(string(id)); !ok {
			return fmt.Errorf("malformed table id %q", id)
		}
		for i, s := range seats {
			if s == nil {
				continue
			}
			where := fmt.Sprintf("%s[%d]", id, i)
			if prev, dup := seen[s.Email]; dup {
				return fmt.Errorf("guest %q seated twice: %s and %s", s.Email, prev, where)
			}
			seen[s.Email] = where
		}
	}
	return nil
}
