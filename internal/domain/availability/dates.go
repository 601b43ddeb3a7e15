package availability

// Dates is the per-service date set: booked, waiting for approval, and openly available days,
// each stored as YYYY-MM-DD strings.
type Dates struct {
	Booked    []string `json:"booked"`
	Waiting   []string `json:"waiting"`
	Available []string `json:"available"`
}

// Occupancy is booked / (booked + waiting + available); zero when the set is empty.
func (d Dates) Occupancy() float64 {
	total := len(d.Booked) + len(d.Waiting) + len(d.Available)
	if total == 0 {
		return 0
	}
	return float64(len(d.Booked)) / float64(total)
}

func (d Dates) IsBooked(day string) bool {
	return contains(d.Booked, day)
}

// Reserve adds days to booked if absent and removes them from waiting and available.
// Applying it twice leaves the same result.
func (d Dates) Reserve(days []string) Dates {
	return Dates{
		Booked:    addAll(d.Booked, days),
		Waiting:   removeAll(d.Waiting, days),
		Available: removeAll(d.Available, days),
	}
}

// Release removes days from booked if present.
func (d Dates) Release(days []string) Dates {
	return Dates{
		Booked:    removeAll(d.Booked, days),
		Waiting:   append([]string(nil), d.Waiting...),
		Available: append([]string(nil), d.Available...),
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func addAll(set, values []string) []string {
	out := append([]string(nil), set...)
	for _, v := range values {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func removeAll(set, values []string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if !contains(values, s) {
			out = append(out, s)
		}
	}
	return out
}
