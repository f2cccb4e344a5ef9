package kb

import (
	"github.com/signalsfoundry/rso-tracker/model"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventReloaded EventType = iota
	EventRiskUpdated
	EventOrbitStatusUpdated
)

func (e EventType) String() string {
	switch e {
	case EventReloaded:
		return "reloaded"
	case EventRiskUpdated:
		return "risk_updated"
	case EventOrbitStatusUpdated:
		return "orbit_status_updated"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when the record set changes.
type Event struct {
	Type EventType
	// Changed is the number of records whose values changed.
	Changed int
	// Total is the catalog size at the time of the event.
	Total int
}

// Catalog owns the record set loaded for one session. Records keep their
// load order, which is also the order they are persisted in.
//
// A Catalog is not safe for concurrent use; a session has a single owner.
type Catalog struct {
	records []*model.SpaceObject
	dirty   bool

	subs map[int]func(Event)
	next int
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{subs: make(map[int]func(Event))}
}

// Replace discards the current record set and takes ownership of records.
// The catalog starts clean: it matches its source.
func (c *Catalog) Replace(records []*model.SpaceObject) {
	c.records = records
	c.dirty = false
	c.notify(Event{Type: EventReloaded, Changed: len(records), Total: len(records)})
}

// Records returns the owned record slice. Analytics passes mutate the
// records in place and must then call MarkChanged.
func (c *Catalog) Records() []*model.SpaceObject {
	return c.records
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// Get returns the first record with the given ID, or nil if not found.
func (c *Catalog) Get(id string) *model.SpaceObject {
	for _, r := range c.records {
		if r.RecordID == id {
			return r
		}
	}
	return nil
}

// MarkChanged signals that an analytics pass rewrote derived fields. The
// catalog becomes dirty even when changed is zero, since the pass itself was
// requested and the output must reflect it.
func (c *Catalog) MarkChanged(kind EventType, changed int) {
	c.dirty = true
	c.notify(Event{Type: kind, Changed: changed, Total: len(c.records)})
}

// Dirty reports whether the record set differs from what was last persisted.
func (c *Catalog) Dirty() bool { return c.dirty }

// MarkClean records that the current record set has been persisted.
func (c *Catalog) MarkClean() { c.dirty = false }

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := c.next
	c.next++
	c.subs[id] = fn
	return func() { delete(c.subs, id) }
}

func (c *Catalog) notify(ev Event) {
	for i := 0; i < c.next; i++ {
		if fn, ok := c.subs[i]; ok {
			fn(ev)
		}
	}
}
