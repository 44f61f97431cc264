package models

// Mood is a static playlist theme descriptor. The set of moods is fixed and
// not user-extensible.
type Mood struct {
	Name        string `json:"name"`
	Gradient    string `json:"gradient"`
	Description string `json:"description"`
}

// Names of the four supported moods.
const (
	MoodHappy   = "Happy"
	MoodSad     = "Sad"
	MoodChill   = "Chill"
	MoodFocused = "Focused"
)

// Moods lists the four supported moods in display order.
var Moods = []Mood{
	{
		Name:        MoodHappy,
		Gradient:    "from-yellow-300 via-yellow-400 to-amber-500",
		Description: "Uplifting and energetic vibes to boost your mood",
	},
	{
		Name:        MoodSad,
		Gradient:    "from-blue-900 via-blue-700 to-blue-500",
		Description: "Melancholic and reflective tunes for contemplation",
	},
	{
		Name:        MoodChill,
		Gradient:    "from-teal-600 via-green-600 to-emerald-700",
		Description: "Relaxed and laid-back sounds to unwind",
	},
	{
		Name:        MoodFocused,
		Gradient:    "from-purple-600 via-purple-500 to-pink-500",
		Description: "Deep concentration music for productivity",
	},
}

// MoodByName returns the mood descriptor for a name, or false if the name
// is not one of the fixed moods.
func MoodByName(name string) (Mood, bool) {
	for _, m := range Moods {
		if m.Name == name {
			return m, true
		}
	}
	return Mood{}, false
}

// IsValidMood reports whether name is one of the fixed moods.
func IsValidMood(name string) bool {
	_, ok := MoodByName(name)
	return ok
}
