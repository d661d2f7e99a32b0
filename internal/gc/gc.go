// Package gc implements an incremental tri-color mark-and-sweep collector
// over an intrusive list of heap objects.
//
// Colors are encoded with a single mark bit per header whose meaning flips
// every cycle: an object is black when its bit equals the collector's black
// bit and white otherwise. Gray objects are black objects still waiting in
// the worklist. New objects are always born white.
package gc

import (
	"time"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-jazz/internal/value"
)

var log = commonlog.GetLogger("jazz.gc")

// State is the phase of the collector's state machine.
type State int

const (
	Waiting State = iota
	Marking
	Sweeping
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Marking:
		return "marking"
	case Sweeping:
		return "sweeping"
	default:
		return "unknown"
	}
}

// RootSet supplies the roots of a collection. It is invoked when a cycle
// starts and again, atomically, when the gray worklist first drains.
type RootSet interface {
	MarkRoots(m value.Marker)
}

// Config tunes collector pacing.
type Config struct {
	// Speed is the number of steps run per Tick while a cycle is active.
	Speed int
	// Pause sets the next threshold as a percentage of the bytes still
	// allocated when a cycle ends.
	Pause int
	// MinThreshold is the lower bound for the allocation threshold.
	MinThreshold int
}

const (
	DefaultSpeed        = 2
	DefaultPause        = 150
	DefaultMinThreshold = 4096
)

// DefaultConfig returns the standard pacing.
func DefaultConfig() Config {
	return Config{Speed: DefaultSpeed, Pause: DefaultPause, MinThreshold: DefaultMinThreshold}
}

// Stats holds collector counters.
type Stats struct {
	Cycles     uint64
	Steps      uint64
	Objects    int
	Bytes      int
	Freed      uint64
	FreedBytes uint64
	Threshold  int
	State      State
	LastCycle  time.Duration
}

// Collector owns the heap list. It is not safe for concurrent use.
type Collector struct {
	roots RootSet
	cfg   Config

	head  value.HeapObject
	state State
	black bool
	gray  []value.HeapObject

	sweepPrev value.HeapObject
	sweepCur  value.HeapObject

	objects    int
	allocated  int
	threshold  int
	cycleStart time.Time
	stats      Stats
}

// New creates a collector tracing from roots.
func New(roots RootSet, cfg Config) *Collector {
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultSpeed
	}
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultPause
	}
	if cfg.MinThreshold <= 0 {
		cfg.MinThreshold = DefaultMinThreshold
	}
	return &Collector{
		roots:     roots,
		cfg:       cfg,
		black:     true,
		threshold: cfg.MinThreshold,
	}
}

// SetRoots replaces the root set.
func (c *Collector) SetRoots(roots RootSet) {
	c.roots = roots
}

// State reports the current phase.
func (c *Collector) State() State {
	return c.state
}

// Alloc links a freshly created object into the heap list. The object is
// white and survives the current cycle only if something live reaches it.
func (c *Collector) Alloc(o value.HeapObject) {
	h := o.GCHeader()
	if h.Static {
		panic("gc: static object linked into heap")
	}
	if h.Freed {
		panic("gc: freed object linked into heap")
	}
	h.Marked = !c.black
	h.Bytes = o.Size()
	h.Next = c.head
	c.head = o
	// While sweeping with no survivor yet the head is the cursor, so the
	// first new object becomes the cursor's predecessor.
	if c.state == Sweeping && c.sweepPrev == nil {
		c.sweepPrev = o
	}
	c.objects++
	c.allocated += h.Bytes
}

// MarkValue shades the heap reference carried by v, if any.
func (c *Collector) MarkValue(v value.Value) {
	if v.IsHeap() {
		c.MarkObject(v.Ref)
	}
}

// MarkObject shades o gray unless it is already black or static.
func (c *Collector) MarkObject(o value.HeapObject) {
	if o == nil {
		return
	}
	h := o.GCHeader()
	if h.Static {
		return
	}
	if h.Freed {
		panic("gc: live reference to a freed object")
	}
	if h.Marked == c.black {
		return
	}
	h.Marked = c.black
	c.gray = append(c.gray, o)
}

// IsBlack reports whether o has been reached in the current cycle.
func (c *Collector) IsBlack(o value.HeapObject) bool {
	h := o.GCHeader()
	return h.Static || h.Marked == c.black
}

// Barrier must be called whenever v is stored into parent (nil for roots
// such as stack slots and globals). While marking it shades a white
// reference stored into a black container so that no black object ever
// points at a white one.
func (c *Collector) Barrier(parent value.HeapObject, v value.Value) {
	if c.state != Marking || !v.IsHeap() {
		return
	}
	if parent != nil {
		ph := parent.GCHeader()
		if !ph.Static && ph.Marked != c.black {
			return
		}
	}
	c.MarkObject(v.Ref)
}

// Tick runs the per-instruction step budget. Nothing happens while the
// collector is waiting and the heap is under its threshold.
func (c *Collector) Tick() {
	if c.state == Waiting && c.allocated < c.threshold {
		return
	}
	for i := 0; i < c.cfg.Speed; i++ {
		c.Step()
		if c.state == Waiting {
			return
		}
	}
}

// Collect finishes any cycle in flight and then runs one complete cycle,
// so every object unreachable at the time of the call is freed.
func (c *Collector) Collect() {
	for c.state != Waiting {
		c.Step()
	}
	c.Step()
	for c.state != Waiting {
		c.Step()
	}
}

// Step performs one bounded unit of work: scanning roots, tracing one gray
// object, or sweeping one list node.
func (c *Collector) Step() {
	c.stats.Steps++
	switch c.state {
	case Waiting:
		c.cycleStart = time.Now()
		c.state = Marking
		if c.roots != nil {
			c.roots.MarkRoots(c)
		}
		log.Debugf("cycle %d: marking (%d objects, %d bytes)", c.stats.Cycles+1, c.objects, c.allocated)
	case Marking:
		if n := len(c.gray); n > 0 {
			o := c.gray[n-1]
			c.gray[n-1] = nil
			c.gray = c.gray[:n-1]
			o.Trace(c)
			return
		}
		if c.roots != nil {
			c.roots.MarkRoots(c)
		}
		if len(c.gray) > 0 {
			return
		}
		c.black = !c.black
		c.state = Sweeping
		c.sweepPrev = nil
		c.sweepCur = c.head
	case Sweeping:
		c.sweepStep()
	}
}

func (c *Collector) sweepStep() {
	cur := c.sweepCur
	if cur == nil {
		c.finishCycle()
		return
	}
	h := cur.GCHeader()
	next := h.Next
	// After the flip, objects that were not reached carry the new black bit.
	if h.Marked == c.black {
		c.unlink(cur, next)
		c.objects--
		c.allocated -= h.Bytes
		c.stats.Freed++
		c.stats.FreedBytes += uint64(h.Bytes)
		cur.Finalize()
		h.Freed = true
		h.Next = nil
	} else {
		c.sweepPrev = cur
	}
	c.sweepCur = next
}

func (c *Collector) unlink(cur, next value.HeapObject) {
	if c.sweepPrev != nil {
		c.sweepPrev.GCHeader().Next = next
		return
	}
	if c.head != cur {
		panic("gc: sweep cursor lost its predecessor")
	}
	c.head = next
}

func (c *Collector) finishCycle() {
	c.state = Waiting
	c.sweepPrev = nil
	c.sweepCur = nil
	c.threshold = c.allocated * c.cfg.Pause / 100
	if c.threshold < c.cfg.MinThreshold {
		c.threshold = c.cfg.MinThreshold
	}
	c.stats.Cycles++
	c.stats.LastCycle = time.Since(c.cycleStart)
	log.Debugf("cycle %d: done in %s, %d objects live (%d bytes), next threshold %d",
		c.stats.Cycles, c.stats.LastCycle, c.objects, c.allocated, c.threshold)
}

// Stats returns a snapshot of the collector counters.
func (c *Collector) Stats() Stats {
	s := c.stats
	s.Objects = c.objects
	s.Bytes = c.allocated
	s.Threshold = c.threshold
	s.State = c.state
	return s
}

// Each visits every object currently linked into the heap list.
func (c *Collector) Each(fn func(value.HeapObject)) {
	for o := c.head; o != nil; o = o.GCHeader().Next {
		fn(o)
	}
}
