package morph

// Override interfaces allow source values to bypass reflection-based lookup
// and serialization. When a value implements one of these interfaces, morph
// calls the interface method instead of inspecting the value.

// Lookuper bypasses reflection for path segment resolution.
// Implement this on source types that are neither maps nor plain structs.
type Lookuper interface {
	// Lookup returns the value stored under name and whether it exists.
	Lookup(name string) (any, bool)
}

// Serializable bypasses default serialization for a value stored in a field.
type Serializable interface {
	// SerializeValue returns a plain representation of the receiver.
	SerializeValue(implicitNulls bool) (any, error)
}
