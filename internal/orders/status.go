package orders

import "strings"

// Status is a free-text workflow label. The constants below are the labels the
// rest of the system reasons about; others are stored as given.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusInTransit  Status = "In Transit"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

var known = []Status{StatusPending, StatusProcessing, StatusInTransit, StatusDelivered, StatusCancelled}

// ParseStatus trims s and folds known labels to their canonical spelling.
// It reports false for an empty label.
func ParseStatus(s string) (Status, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", false
	}
	for _, k := range known {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return Status(s), true
}
