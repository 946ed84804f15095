// Package intent classifies free-text user input into one of the closed set
// of query categories. Classification is a pure function of the input text
// and a fixed trigger table, so the same input always yields the same
// intent. Triggers are matched as substrings, which keeps the classifier
// language-agnostic: Thai has no word boundaries, so token-based matching
// would not work for the primary working language.
package intent

import (
	"strings"

	"github.com/tripmesh/tripmesh/core"
)

// triggers maps each classifiable intent to its trigger substrings. Matching
// is case-insensitive; Thai triggers are unaffected by folding.
var triggers = map[core.Intent][]string{
	core.IntentRestaurant: {
		"ร้านอาหาร", "กินที่ไหนดี", "อาหาร", "ร้านอร่อย", "ของกิน",
		"restaurant", "where to eat", "food",
	},
	core.IntentActivity: {
		"สถานที่ท่องเที่ยว", "กิจกรรม", "เที่ยวที่ไหนดี", "สถานที่น่าสนใจ",
		"attraction", "things to do", "activities",
	},
	core.IntentAccommodation: {
		"ที่พัก", "โรงแรม", "รีสอร์ท", "โฮสเทล", "พักที่ไหนดี",
		"hotel", "resort", "hostel", "accommodation",
	},
	core.IntentTransportation: {
		"การเดินทาง", "เดินทางยังไง", "เดินทางอย่างไร", "เครื่องบิน", "รถไฟ", "รถทัวร์", "รถโดยสาร",
		"flight", "train", "bus", "how to get",
	},
	core.IntentTravelPlanner: {
		"ช่วยวางแผนการเดินทางท่องเที่ยว", "วางแผนการเดินทาง", "วางแผนเที่ยว", "แผนการเดินทาง", "แผนเที่ยว",
		"itinerary", "plan a trip", "plan my trip",
	},
	core.IntentYoutubeInsight: {
		"youtube", "ยูทูป", "วิดีโอ", "คลิปท่องเที่ยว", "รีวิวจากคลิป", "vlog",
	},
}

// priority is the fixed tie-break order applied when two intents score
// equally. Earlier wins.
var priority = []core.Intent{
	core.IntentRestaurant,
	core.IntentActivity,
	core.IntentAccommodation,
	core.IntentTransportation,
	core.IntentTravelPlanner,
	core.IntentYoutubeInsight,
}

// Classify maps free-text input to an intent. Each intent scores one point
// per matching trigger; the highest score wins, ties resolved by the fixed
// priority order. Input matching no trigger is classified as IntentGeneral.
func Classify(text string) core.Intent {
	lowered := strings.ToLower(text)

	best := core.IntentGeneral
	bestScore := 0
	for _, intent := range priority {
		score := 0
		for _, trigger := range triggers[intent] {
			if strings.Contains(lowered, trigger) {
				score++
			}
		}
		if score > bestScore {
			best = intent
			bestScore = score
		}
	}
	return best
}
