package petri

import (
	"io"

	"github.com/google/uuid"
)

type Kind int

const (
	PlaceObject Kind = iota
	TransitionObject
	ArcObject
)

func (k Kind) String() string {
	switch k {
	case PlaceObject:
		return "place"
	case TransitionObject:
		return "transition"
	case ArcObject:
		return "arc"
	}
	return "unknown"
}

// Node is either a place or a transition.
type Node interface {
	Kind() Kind
	Identifier() string
	String() string
	IsNode()
}

// ID returns a fresh identifier for a net object.
func ID() string {
	return uuid.NewString()
}

type Loader[T any] interface {
	Load(io.Reader) (T, error)
}

type Flusher[T any] interface {
	Flush(io.Writer, T) error
}
