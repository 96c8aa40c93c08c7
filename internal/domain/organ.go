package domain

// Organ is the fixed set of transplantable organ types the service tracks.
type Organ string

const (
	OrganKidney   Organ = "kidney"
	OrganLiver    Organ = "liver"
	OrganHeart    Organ = "heart"
	OrganLung     Organ = "lung"
	OrganPancreas Organ = "pancreas"
	OrganCornea   Organ = "cornea"
)

var organs = map[Organ]bool{
	OrganKidney:   true,
	OrganLiver:    true,
	OrganHeart:    true,
	OrganLung:     true,
	OrganPancreas: true,
	OrganCornea:   true,
}

// Valid reports whether o is a known organ type.
func (o Organ) Valid() bool {
	return organs[o]
}
