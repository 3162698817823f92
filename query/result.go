package query

// Result is a three valued truth value. RUnknown is only produced by conditions that cannot be decided at
// a single marking, such as temporal operators.
type Result uint8

const (
	RUnknown Result = iota
	RFalse
	RTrue
)

func ResultOf(b bool) Result {
	if b {
		return RTrue
	}
	return RFalse
}

func (r Result) Not() Result {
	switch r {
	case RTrue:
		return RFalse
	case RFalse:
		return RTrue
	}
	return RUnknown
}

func (r Result) String() string {
	switch r {
	case RTrue:
		return "true"
	case RFalse:
		return "false"
	}
	return "unknown"
}
