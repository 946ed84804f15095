package agent

import (
	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/model"
	"github.com/tripmesh/tripmesh/search"
)

// Output state keys owned by the built-in agents. The travel planner reads
// the recommendation keys and writes only its own plan key.
const (
	KeyAccommodation  = "accommodation_recommendations"
	KeyActivity       = "activity_recommendations"
	KeyRestaurant     = "restaurant_recommendations"
	KeyTransportation = "transportation_recommendations"
	KeyTravelPlan     = "travel_plan"
	KeyYoutubeInsight = "youtube_insights"
)

// NewAccommodationAgent recommends hotels and stays for the trip destination.
func NewAccommodationAgent(llm model.Model, searchTool *search.Adapter) *DomainAgent {
	return NewDomainAgent(core.IntentAccommodation.String(), KeyAccommodation, llm, func(o *DomainAgentOptions) {
		o.Description = "Recommends accommodation matching the traveller's destination and budget."
		o.Instruction = NewInstructionFromText(
			"คุณคือผู้ช่วยแนะนำที่พักสำหรับนักท่องเที่ยว " +
				"แนะนำโรงแรม รีสอร์ท หรือที่พักที่เหมาะสมกับจุดหมาย {{.destination | default \"ที่ผู้ใช้ระบุ\"}} " +
				"และงบประมาณ {{.budget | default \"ตามความเหมาะสม\"}} " +
				"ตอบเป็นภาษาไทย ระบุชื่อที่พัก ทำเล ช่วงราคา และจุดเด่นของแต่ละแห่ง")
		o.Search = searchTool
	})
}

// NewActivityAgent suggests attractions and things to do.
func NewActivityAgent(llm model.Model, searchTool *search.Adapter) *DomainAgent {
	return NewDomainAgent(core.IntentActivity.String(), KeyActivity, llm, func(o *DomainAgentOptions) {
		o.Description = "Suggests attractions and activities at the destination."
		o.Instruction = NewInstructionFromText(
			"คุณคือผู้ช่วยแนะนำสถานที่ท่องเที่ยวและกิจกรรม " +
				"แนะนำสถานที่และกิจกรรมที่น่าสนใจใน {{.destination | default \"จุดหมายของผู้ใช้\"}} " +
				"โดยคำนึงถึงความชอบ {{.preferences | default \"ทั่วไป\"}} " +
				"ตอบเป็นภาษาไทย ระบุชื่อสถานที่ เวลาที่เหมาะสม และเหตุผลที่แนะนำ")
		o.Search = searchTool
		o.SearchDepth = search.DepthDeep
	})
}

// NewRestaurantAgent recommends places to eat.
func NewRestaurantAgent(llm model.Model, searchTool *search.Adapter) *DomainAgent {
	return NewDomainAgent(core.IntentRestaurant.String(), KeyRestaurant, llm, func(o *DomainAgentOptions) {
		o.Description = "Recommends restaurants and local food at the destination."
		o.Instruction = NewInstructionFromText(
			"คุณคือผู้ช่วยแนะนำร้านอาหารสำหรับนักท่องเที่ยว " +
				"แนะนำร้านอาหารและของกินท้องถิ่นใน {{.destination | default \"จุดหมายของผู้ใช้\"}} " +
				"ตอบเป็นภาษาไทย ระบุชื่อร้าน เมนูเด็ด ช่วงราคา และทำเล")
		o.Search = searchTool
	})
}

// NewTransportationAgent advises on how to get there and around.
func NewTransportationAgent(llm model.Model, searchTool *search.Adapter) *DomainAgent {
	return NewDomainAgent(core.IntentTransportation.String(), KeyTransportation, llm, func(o *DomainAgentOptions) {
		o.Description = "Advises on transport options to and around the destination."
		o.Instruction = NewInstructionFromText(
			"คุณคือผู้ช่วยแนะนำการเดินทาง " +
				"แนะนำวิธีเดินทางไป {{.destination | default \"จุดหมายของผู้ใช้\"}} และการเดินทางภายในพื้นที่ " +
				"ในช่วง {{.dates | default \"เวลาที่ผู้ใช้สะดวก\"}} " +
				"ตอบเป็นภาษาไทย เปรียบเทียบตัวเลือก เวลาเดินทาง และค่าใช้จ่ายโดยประมาณ")
		o.Search = searchTool
	})
}

// NewTravelPlannerAgent composes a full itinerary. It reads the other
// agents' recommendation keys from session state and writes only the plan.
func NewTravelPlannerAgent(llm model.Model) *DomainAgent {
	return NewDomainAgent(core.IntentTravelPlanner.String(), KeyTravelPlan, llm, func(o *DomainAgentOptions) {
		o.Description = "Builds a day-by-day itinerary from the collected recommendations."
		o.Instruction = NewInstructionFromText(
			"คุณคือผู้วางแผนการเดินทาง สร้างแผนการเดินทางแบบวันต่อวันจากข้อมูลที่รวบรวมไว้\n" +
				"การเดินทาง: {{.transportation_recommendations | default \"ยังไม่มีข้อมูล\"}}\n" +
				"ที่พัก: {{.accommodation_recommendations | default \"ยังไม่มีข้อมูล\"}}\n" +
				"ร้านอาหาร: {{.restaurant_recommendations | default \"ยังไม่มีข้อมูล\"}}\n" +
				"กิจกรรม: {{.activity_recommendations | default \"ยังไม่มีข้อมูล\"}}\n" +
				"ตอบเป็นภาษาไทย จัดแผนให้อ่านง่าย แบ่งเป็นช่วงเช้า กลางวัน เย็น")
	})
}

// NewYoutubeInsightAgent summarizes traveller experiences found in video
// reviews and vlogs.
func NewYoutubeInsightAgent(llm model.Model, searchTool *search.Adapter) *DomainAgent {
	return NewDomainAgent(core.IntentYoutubeInsight.String(), KeyYoutubeInsight, llm, func(o *DomainAgentOptions) {
		o.Description = "Summarizes insights from video reviews and travel vlogs."
		o.Instruction = NewInstructionFromText(
			"คุณคือผู้ช่วยสรุปรีวิวท่องเที่ยวจากวิดีโอ " +
				"สรุปประสบการณ์และคำแนะนำจากรีวิว vlog เกี่ยวกับ {{.destination | default \"จุดหมายของผู้ใช้\"}} " +
				"ตอบเป็นภาษาไทย สรุปเป็นข้อ พร้อมระบุแหล่งที่มาเมื่อทราบ")
		o.Search = searchTool
		o.SearchDepth = search.DepthDeep
		o.SearchPlan = func(query string, _ map[string]any) []string {
			return []string{query + " youtube รีวิว ท่องเที่ยว"}
		}
	})
}

// RegisterDefaults registers the six built-in travel agents on the registry.
func RegisterDefaults(r *Registry, llm model.Model, searchTool *search.Adapter) {
	r.Register(NewAccommodationAgent(llm, searchTool))
	r.Register(NewActivityAgent(llm, searchTool))
	r.Register(NewRestaurantAgent(llm, searchTool))
	r.Register(NewTransportationAgent(llm, searchTool))
	r.Register(NewTravelPlannerAgent(llm))
	r.Register(NewYoutubeInsightAgent(llm, searchTool))
}
