package traits

// band labels values in [lo, hi). Tables are checked in order and the first
// match wins, so overlapping bands resolve to the earlier label.
type band struct {
	lo, hi int
	label  string
}

var (
	innerLight = []band{
		{0, 20, "Ignorant"},
		{201, 240, "Intelligent"},
		{241, 255, "Enlightened"},
		{255, 256, "Genius"},
	}
	presence = []band{
		{0, 1, "Invisible"},
		{1, 5, "Ghostly"},
		{5, 20, "Shadowy"},
		{210, 250, "Practical"},
		{220, 255, "Shimmering"},
	}
	charm = []band{
		{0, 5, "Brutal"},
		{5, 15, "Unfriendly"},
		{230, 250, "Frendly"},
		{250, 255, "Charming"},
	}
	strangeness = []band{
		{200, 240, "Strange"},
		{240, 255, "Weird"},
	}
	beauty = []band{
		{0, 10, "Ugly"},
		{10, 20, "Unattractive"},
		{200, 230, "Attractive"},
		{230, 250, "Beautiful"},
		{250, 255, "Exquisite"},
	}
	truth = []band{
		{0, 5, "Lying"},
		{5, 20, "Dishonest"},
		{220, 250, "Honest"},
		{250, 255, "Oracular"},
	}
	magic = []band{
		{0, 20, "Clumsy"},
		{210, 250, "Magical"},
		{250, 255, "Legendary"},
		{255, 256, "Mythical"},
	}
)

func label(table []band, v uint8) string {
	for _, b := range table {
		if int(v) >= b.lo && int(v) < b.hi {
			return b.label
		}
	}
	return ""
}

func virtue(name string, v uint8, table []band) Virtue {
	return Virtue{Name: name, Value: v, Label: label(table, v)}
}
