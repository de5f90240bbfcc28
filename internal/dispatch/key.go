package dispatch

import "strconv"

// Key addresses a live request. It is either a numeric correlation id
// chosen at send time or a fixed symbolic stream name.
type Key struct {
	id       uint64
	name     string
	symbolic bool
}

// Numeric returns the key for a correlation id.
func Numeric(id uint64) Key {
	return Key{id: id}
}

// Symbolic returns the key for a named stream.
func Symbolic(name string) Key {
	return Key{name: name, symbolic: true}
}

// ID returns the correlation id and true for numeric keys.
func (k Key) ID() (uint64, bool) {
	return k.id, !k.symbolic
}

// Name returns the stream name and true for symbolic keys.
func (k Key) Name() (string, bool) {
	return k.name, k.symbolic
}

// IsSymbolic reports whether the key is a stream name.
func (k Key) IsSymbolic() bool {
	return k.symbolic
}

// IsZero reports whether the key addresses nothing.
func (k Key) IsZero() bool {
	if k.symbolic {
		return k.name == ""
	}
	return k.id == 0
}

func (k Key) String() string {
	if k.symbolic {
		return k.name
	}
	return "#" + strconv.FormatUint(k.id, 10)
}
