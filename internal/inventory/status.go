package inventory

type Status string

const (
	StatusAvailable Status = "Available"
	StatusReserved  Status = "Reserved"
	StatusPicked    Status = "Picked"
)

type MovementType string

const (
	MovementReservation MovementType = "Reservation"
	MovementExit        MovementType = "Exit"
)

// Picked is terminal: the row gets exited_at and drops out of every live query.
var validNext = map[Status]map[Status]bool{
	StatusAvailable: {StatusReserved: true},
	StatusReserved:  {StatusPicked: true},
	StatusPicked:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := validNext[st]
	return st, ok
}
