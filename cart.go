package coursecart

// Cart is a user's shopping cart of sections, in insertion order.
// No two sections in a cart are repeats of each other or overlap; Add enforces this.
type Cart struct {
	Owner    string    `json:"owner"`
	Sections []Section `json:"sections"`
}

// Add inserts candidate unless it repeats or overlaps a section already in the cart.
// Sections are checked in cart order and the first conflict stops the scan; for a given
// section a repeat is reported ahead of an overlap. Candidates are expected to have passed
// Section.Validate; one whose times do not parse is reported as an overlap against any section
// sharing a day with it.
func (c *Cart) Add(candidate Section) (repeat, overlap bool) {
	for _, curr := range c.Sections {
		if AreRepeats(curr, candidate) {
			return true, false
		}
		if DoOverlap(curr, candidate) {
			return false, true
		}
	}

	c.Sections = append(c.Sections, candidate)
	return false, false
}

// Remove drops the section with the given course number. It reports whether anything was removed.
func (c *Cart) Remove(courseNumber int) bool {
	for i, s := range c.Sections {
		if s.CourseNumber == courseNumber {
			c.Sections = append(c.Sections[:i], c.Sections[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the section with the given course number is in the cart.
func (c Cart) Contains(courseNumber int) bool {
	for _, s := range c.Sections {
		if s.CourseNumber == courseNumber {
			return true
		}
	}
	return false
}
