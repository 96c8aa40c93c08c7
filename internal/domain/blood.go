package domain

// BloodType is one of the eight ABO/Rh groups.
type BloodType string

const (
	BloodONeg  BloodType = "O-"
	BloodOPos  BloodType = "O+"
	BloodANeg  BloodType = "A-"
	BloodAPos  BloodType = "A+"
	BloodBNeg  BloodType = "B-"
	BloodBPos  BloodType = "B+"
	BloodABNeg BloodType = "AB-"
	BloodABPos BloodType = "AB+"
)

// donationTable maps each donor blood type to the recipient types it can
// donate to. O- is the universal donor; AB+ the universal recipient.
var donationTable = map[BloodType][]BloodType{
	BloodONeg:  {BloodONeg, BloodOPos, BloodANeg, BloodAPos, BloodBNeg, BloodBPos, BloodABNeg, BloodABPos},
	BloodOPos:  {BloodOPos, BloodAPos, BloodBPos, BloodABPos},
	BloodANeg:  {BloodANeg, BloodAPos, BloodABNeg, BloodABPos},
	BloodAPos:  {BloodAPos, BloodABPos},
	BloodBNeg:  {BloodBNeg, BloodBPos, BloodABNeg, BloodABPos},
	BloodBPos:  {BloodBPos, BloodABPos},
	BloodABNeg: {BloodABNeg, BloodABPos},
	BloodABPos: {BloodABPos},
}

// Valid reports whether b is one of the eight known groups.
func (b BloodType) Valid() bool {
	_, ok := donationTable[b]
	return ok
}

// CanDonateTo reports whether blood type b may donate to a recipient with
// blood type r.
func (b BloodType) CanDonateTo(r BloodType) bool {
	for _, allowed := range donationTable[b] {
		if allowed == r {
			return true
		}
	}
	return false
}
