package model

// LogPosition orders logs across blocks.
type LogPosition struct {
	Block uint64 `json:"block"`
	Index uint64 `json:"index"`
}

// Before reports whether p precedes other in chain order.
func (p LogPosition) Before(other LogPosition) bool {
	if p.Block != other.Block {
		return p.Block < other.Block
	}
	return p.Index < other.Index
}

// Supersedes reports whether a write at next may overwrite a field last written at current.
// A nil current means the field was never written by a positioned event.
func Supersedes(current *LogPosition, next LogPosition) bool {
	return current == nil || current.Before(next)
}
