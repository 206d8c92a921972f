package agent

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/frontdesk-labs/frontdesk-core/internal/intake"
	"github.com/frontdesk-labs/frontdesk-core/internal/protocol"
)

// defaultSlotTemplates are the bookable times scanned for suggestions.
var defaultSlotTemplates = []string{"07:30", "09:00", "10:30", "12:00", "15:00", "17:30"}

// defaultBusyTimes apply to days with no recorded bookings.
var defaultBusyTimes = []string{"09:00", "12:00"}

// Availability is the outcome of a calendar check.
type Availability struct {
	Available  bool
	Slot       string
	Suggestion string
}

// Calendar is an in-memory availability and booking store. One instance is
// shared per process; state does not survive a restart. Kept deliberately
// simple because call and process lifetimes are assumed short.
type Calendar struct {
	mu    sync.Mutex
	busy  map[string][]string
	slots []string
	now   func() time.Time
}

func NewCalendar(slotTemplates []string) *Calendar {
	slots := slotTemplates
	if len(slots) == 0 {
		slots = defaultSlotTemplates
	}
	return &Calendar{
		busy:  make(map[string][]string),
		slots: slots,
		now:   time.Now,
	}
}

// CheckAvailability resolves the caller's preference to a concrete slot and
// reports whether it is open; when busy, a suggested alternate is included.
func (c *Calendar) CheckAvailability(pref *intake.SlotPreference) Availability {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rawDate, rawTime string
	if pref != nil {
		rawDate = pref.Date
		rawTime = pref.Time
	}
	date := c.resolveDate(rawDate)
	slotTime := rawTime
	if slotTime == "" {
		slotTime = "09:00"
	}
	slot := date + "T" + slotTime

	if !c.isBusy(date, slotTime) {
		return Availability{Available: true, Slot: slot}
	}

	suggestion := c.nextOpenSlot(date)
	if suggestion == "" {
		suggestion = date + "T" + c.fallbackTime(slotTime)
	}
	return Availability{Available: false, Slot: slot, Suggestion: suggestion}
}

// Book marks the slot busy and returns a confirmation code.
func (c *Calendar) Book(slot string, lead protocol.Lead) (string, error) {
	if len(slot) < 16 || slot[10] != 'T' {
		return "", fmt.Errorf("malformed slot %q", slot)
	}
	date, slotTime := slot[:10], slot[11:]

	c.mu.Lock()
	defer c.mu.Unlock()
	if !contains(c.busy[date], slotTime) {
		c.busy[date] = append(c.busy[date], slotTime)
	}

	confirmation := fmt.Sprintf("MAD-%s-%d", strings.ReplaceAll(date, "-", ""), rand.Intn(900)+100)
	return confirmation, nil
}

func (c *Calendar) isBusy(date, slotTime string) bool {
	busy, ok := c.busy[date]
	if !ok {
		busy = defaultBusyTimes
	}
	return contains(busy, slotTime)
}

// resolveDate turns "today", "tomorrow", weekday names (optionally prefixed
// with "next "), or an ISO date into YYYY-MM-DD; anything else resolves to
// today.
func (c *Calendar) resolveDate(raw string) string {
	base := c.now()
	lower := strings.ToLower(strings.TrimSpace(raw))

	switch lower {
	case "", "today":
		return formatDate(base)
	case "tomorrow":
		return formatDate(base.AddDate(0, 0, 1))
	}

	target := strings.TrimPrefix(lower, "next ")
	if weekday, ok := weekdayIndex(target); ok {
		diff := weekday - int(base.Weekday())
		if diff <= 0 {
			diff += 7
		}
		if strings.HasPrefix(lower, "next ") {
			diff += 7
		}
		return formatDate(base.AddDate(0, 0, diff))
	}

	if _, err := time.Parse("2006-01-02", lower); err == nil {
		return lower
	}
	return formatDate(base)
}

// nextOpenSlot scans up to five days forward for the first template slot not
// marked busy.
func (c *Calendar) nextOpenSlot(date string) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	for offset := 0; offset < 5; offset++ {
		d := formatDate(day.AddDate(0, 0, offset))
		busy, ok := c.busy[d]
		if !ok {
			busy = defaultBusyTimes
		}
		for _, slot := range c.slots {
			if !contains(busy, slot) {
				return d + "T" + slot
			}
		}
	}
	return ""
}

func (c *Calendar) fallbackTime(current string) string {
	for i, slot := range c.slots {
		if slot == current && i+1 < len(c.slots) {
			return c.slots[i+1]
		}
	}
	return c.slots[0]
}

func weekdayIndex(name string) (int, bool) {
	weekdays := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	for i, w := range weekdays {
		if w == name {
			return i, true
		}
	}
	return 0, false
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
