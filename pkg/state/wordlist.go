package state

// Curated word lists a Plan's filename is drawn from (spec.md §4.6
// "random selection from curated word lists"). Kept short and pronounceable,
// matching the "adjective-verb-noun" shape reference fixtures use.
var (
	planAdjectives = []string{
		"calm", "swift", "quiet", "bold", "bright", "steady", "gentle", "sharp",
	}
	planVerbs = []string{
		"build", "trace", "weave", "chart", "forge", "guide", "shape", "mend",
	}
	planNouns = []string{
		"river", "ridge", "harbor", "meadow", "ember", "lantern", "thicket", "canyon",
	}
)
