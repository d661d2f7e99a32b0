package value

// ObjType tags the dynamic type of a heap object in its header.
type ObjType uint8

const (
	TypeString ObjType = iota + 1
	TypeObject
	TypeBox
	TypeTemplate
)

func (t ObjType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeBox:
		return "box"
	case TypeTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Header is embedded in every GC-managed allocation. Next threads the
// object into the collector's heap list; Marked is interpreted against the
// collector's current black bit. Static objects (compile-time constants)
// are never linked or swept. Bytes is recorded by the collector at
// allocation time.
type Header struct {
	Marked bool
	Static bool
	Freed  bool
	Type   ObjType
	Bytes  int
	Next   HeapObject
}

// GCHeader exposes the embedded header.
func (h *Header) GCHeader() *Header { return h }

// HeapObject is implemented by every heap allocation.
type HeapObject interface {
	GCHeader() *Header
	// Trace reports every outgoing reference to m.
	Trace(m Marker)
	// Size approximates the allocation in bytes for GC pacing.
	Size() int
	// Finalize releases payload when the object is swept.
	Finalize()
}

// Marker receives references discovered while tracing.
type Marker interface {
	MarkValue(v Value)
	MarkObject(o HeapObject)
}

// Callable is implemented by heap objects that may be invoked.
type Callable interface {
	Callable() bool
}

// String is an immutable heap string.
type String struct {
	Header
	S string
}

// NewString returns an unlinked dynamic string; the caller registers it
// with the collector.
func NewString(s string) *String {
	return &String{Header: Header{Type: TypeString}, S: s}
}

// StaticString returns a string that lives outside the collected heap.
func StaticString(s string) *String {
	return &String{Header: Header{Type: TypeString, Static: true}, S: s}
}

func (s *String) Trace(Marker) {}

func (s *String) Size() int { return 32 + len(s.S) }

func (s *String) Finalize() { s.S = "" }

func (s *String) String() string { return s.S }
