package triage

// Category names the symptom group a message was matched to.
type Category string

const (
	Fever      Category = "fever"
	ColdThroat Category = "cold_throat"
	Headache   Category = "headache"
	ChestPain  Category = "chest_pain"
	Digestive  Category = "digestive"
	BackPain   Category = "back_pain"
	General    Category = "default"
)

// Rule pairs a keyword group with its canned reply.
type Rule struct {
	Category Category
	Keywords []string
	Response string
	Score    int
}

// rules is evaluated top to bottom; the first rule with a matching keyword wins.
// Chest pain sits after fever, cold/throat and headache, so "fever and chest pain"
// is answered as fever.
//
// Keywords match as plain substrings, not words: "shot" and "photo" hit fever
// through "hot", "heartburn" hits chest pain through "heart". Routing depends on
// this; do not switch to word matching without revisiting the rule order.
var rules = []Rule{
	{
		Category: Fever,
		Keywords: []string{"fever", "temperature", "hot", "burning up", "chills"},
		Response: "I understand you're experiencing fever. Here's my assessment:\n\n" +
			"🌡️ **Fever Management**:\n- Monitor your temperature regularly\n- Stay hydrated with plenty of fluids\n" +
			"- Rest and avoid strenuous activities\n- Use fever-reducing medications as needed\n\n" +
			"🚨 **Seek immediate care if**:\n- Temperature above 103°F (39.4°C)\n- Difficulty breathing\n" +
			"- Persistent vomiting\n- Signs of dehydration\n\n" +
			"🏥 **Recommendation**: Consider consulting a healthcare provider if fever persists for more than 3 days.",
		Score: 45,
	},
	{
		Category: ColdThroat,
		Keywords: []string{"cold", "flu", "cough", "sore throat", "throat", "runny nose", "sneez", "congest"},
		Response: "It sounds like a common cold or throat irritation. Here's what usually helps:\n\n" +
			"😷 **Home Care**:\n- Drink warm fluids such as tea with honey or broth\n- Gargle with warm salt water\n" +
			"- Use throat lozenges and a humidifier\n- Get plenty of rest\n\n" +
			"⚠️ **See a doctor if**:\n- Symptoms last longer than 10 days\n- You have trouble swallowing or breathing\n" +
			"- A high fever develops\n\n" +
			"💡 Most colds clear up on their own within a week.",
		Score: 20,
	},
	{
		Category: Headache,
		Keywords: []string{"headache", "head pain", "head hurts", "migraine"},
		Response: "Based on your headache symptoms, here's what I recommend:\n\n" +
			"🧠 **Assessment**: Headaches can have various causes including stress, dehydration, or tension.\n\n" +
			"💡 **Immediate Care**:\n- Rest in a dark, quiet room\n- Stay hydrated with water\n" +
			"- Apply a cold or warm compress\n- Consider over-the-counter pain relievers if needed\n\n" +
			"⚠️ **Seek medical attention if**:\n- Severe or sudden onset\n- Accompanied by fever, stiff neck, or vision changes\n" +
			"- Persistent for more than 24 hours\n\n" +
			"📍 Would you like me to find nearby hospitals or clinics?",
		Score: 25,
	},
	{
		Category: ChestPain,
		Keywords: []string{"chest pain", "chest hurt", "chest tight", "heart", "palpitation"},
		Response: "⚠️ **URGENT ATTENTION NEEDED**\n\nChest pain requires immediate medical evaluation.\n\n" +
			"🚨 **Immediate Actions**:\n- Stop any physical activity\n- Sit down and rest\n" +
			"- If you have prescribed nitroglycerin, take as directed\n- Call emergency services if pain is severe\n\n" +
			"📞 **Call 911 immediately if experiencing**:\n- Crushing or squeezing chest pain\n" +
			"- Pain radiating to arm, jaw, or back\n- Shortness of breath\n- Nausea or sweating\n\n" +
			"🏥 **I strongly recommend visiting the nearest emergency room immediately.**",
		Score: 85,
	},
	{
		Category: Digestive,
		Keywords: []string{"stomach", "abdominal", "nausea", "vomit", "diarrhea", "constipat", "indigestion", "bloat"},
		Response: "Digestive discomfort is common. Here's my assessment:\n\n" +
			"🍵 **Relief Tips**:\n- Sip clear fluids in small amounts\n- Eat bland foods such as rice, bananas and toast\n" +
			"- Avoid fatty, spicy or heavy meals\n- Rest and avoid lying flat right after eating\n\n" +
			"⚠️ **Seek medical attention if**:\n- Pain is severe or localized to one spot\n- You see blood in vomit or stool\n" +
			"- Symptoms last more than 48 hours or you cannot keep fluids down\n\n" +
			"🏥 A doctor can help if symptoms keep coming back.",
		Score: 35,
	},
	{
		Category: BackPain,
		Keywords: []string{"back pain", "backache", "lower back", "spine"},
		Response: "Back pain is often muscular. Here's what I recommend:\n\n" +
			"💪 **Self Care**:\n- Keep gently active; avoid long bed rest\n- Apply heat or cold packs\n" +
			"- Consider over-the-counter pain relievers\n- Check your posture and lifting technique\n\n" +
			"⚠️ **See a doctor if**:\n- Pain follows a fall or injury\n- You notice numbness, weakness or tingling in the legs\n" +
			"- Pain persists beyond a few weeks\n\n" +
			"📍 Would you like me to find nearby orthopedic clinics?",
		Score: 30,
	},
}

var fallbackRule = Rule{
	Category: General,
	Response: "Thank you for sharing your symptoms with Medi Care. Based on your description, here's my assessment:\n\n" +
		"🔍 **General Recommendations**:\n- Monitor your symptoms closely\n- Stay hydrated and get adequate rest\n" +
		"- Maintain a healthy diet\n- Avoid strenuous activities if feeling unwell\n\n" +
		"💡 **When to seek care**:\n- If symptoms worsen or persist\n- If you develop new concerning symptoms\n" +
		"- If you have any doubts about your condition\n\n" +
		"⚠️ **Disclaimer**: This is AI-generated guidance, not a medical diagnosis. Please consult a healthcare professional for proper evaluation.\n\n" +
		"Would you like me to help you find nearby healthcare facilities?",
	Score: 30,
}
