package core

// Intent is the closed set of query categories the classifier can produce.
// It is derived from the message text and never stored.
type Intent string

const (
	IntentAccommodation  Intent = "accommodation"
	IntentActivity       Intent = "activity"
	IntentRestaurant     Intent = "restaurant"
	IntentTransportation Intent = "transportation"
	IntentTravelPlanner  Intent = "travel_planner"
	IntentYoutubeInsight Intent = "youtube_insight"
	IntentGeneral        Intent = "general"
)

// String returns the intent name as used for registry lookups.
func (i Intent) String() string { return string(i) }
