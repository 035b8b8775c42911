package medical

import "strings"

// Specialty is a domain focus hint attached to the generation prompt. It
// never affects control flow or persisted data.
type Specialty struct {
	Name  string
	Focus string
}

// specialties associates each specialty with its focus description; the
// comma-separated focus terms double as the match keywords. Order matters:
// classification returns the first specialty with a keyword hit.
var specialties = []Specialty{
	{"cardiology", "cardiovascular system, heart conditions, blood pressure, cardiac procedures"},
	{"neurology", "nervous system, brain, neurological disorders, cognitive function"},
	{"oncology", "cancer, tumors, chemotherapy, radiation therapy, oncological treatments"},
	{"pediatrics", "children's health, pediatric conditions, child development, vaccination"},
	{"psychiatry", "mental health, psychological disorders, therapy, psychiatric medications"},
	{"dermatology", "skin conditions, dermatological treatments, skin cancer, allergies"},
	{"orthopedics", "bones, joints, muscles, fractures, orthopedic surgery"},
	{"gastroenterology", "digestive system, stomach, intestines, liver, gastrointestinal disorders"},
	{"endocrinology", "hormones, diabetes, thyroid, endocrine system disorders"},
	{"pulmonology", "lungs, respiratory system, breathing disorders, pulmonary conditions"},
}

// ClassifySpecialty maps the lower-cased text against the specialty keyword
// table and returns the first match, if any.
func ClassifySpecialty(text string) (Specialty, bool) {
	lower := strings.ToLower(text)
	for _, sp := range specialties {
		for _, keyword := range strings.Split(sp.Focus, ", ") {
			if strings.Contains(lower, keyword) {
				return sp, true
			}
		}
	}
	return Specialty{}, false
}
