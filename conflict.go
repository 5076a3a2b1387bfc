package coursecart

// AreRepeats reports whether a and b are sections of the same catalog course.
func AreRepeats(a, b Section) bool {
	return a.CatalogNumber == b.CatalogNumber
}

// DoOverlap reports whether a and b meet on a shared day at intersecting times.
// Touching intervals overlap. Sections that are not well formed never overlap. A meeting on a shared
// day whose times do not parse counts as overlapping, so a section that skipped Validate is never
// placed beside one it might clash with.
func DoOverlap(a, b Section) bool {
	if !a.WellFormed() || !b.WellFormed() {
		return false
	}

	for _, m1 := range a.Meetings {
		for _, m2 := range b.Meetings {
			if !shareDay(m1, m2) {
				continue
			}

			start1, end1, err := m1.Span()
			if err != nil {
				return true
			}
			start2, end2, err := m2.Span()
			if err != nil {
				return true
			}

			if max(start1, start2) <= min(end1, end2) {
				return true
			}
		}
	}

	return false
}

func shareDay(m1, m2 Meeting) bool {
	for _, d1 := range m1.DayCodes() {
		for _, d2 := range m2.DayCodes() {
			if d1 == d2 {
				return true
			}
		}
	}
	return false
}
