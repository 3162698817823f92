package petri

var _ Node = (*Place)(nil)

// Place represents a place.
type Place struct {
	ID string `json:"_id"`
	// Name is the name of the place
	Name string `json:"name,omitempty"`
	// Initial is the number of tokens in the place in the initial marking
	Initial uint32 `json:"initial,omitempty"`
}

// NewPlace creates a new place.
func NewPlace(name string, initial uint32) *Place {
	return &Place{
		ID:      ID(),
		Name:    name,
		Initial: initial,
	}
}

func (p *Place) IsNode() {}

func (p *Place) Kind() Kind { return PlaceObject }

func (p *Place) Identifier() string {
	return p.ID
}

func (p *Place) String() string {
	return p.Name
}
