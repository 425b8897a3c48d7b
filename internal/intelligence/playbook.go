package intelligence

// FallbackPlaybook is the generic candidate list used when no model answer
// is available.
func FallbackPlaybook() []Candidate {
	return []Candidate{
		{Name: "Interview ten target customers", Hypothesis: "We believe direct interviews will surface the sharpest pain point."},
		{Name: "Launch a landing page waitlist", Hypothesis: "We believe a waitlist will measure real demand before building."},
		{Name: "Run a referral program", Hypothesis: "We believe early users will bring peers if rewarded."},
		{Name: "Offer an annual pricing plan", Hypothesis: "We believe a discounted annual plan will lift retention."},
		{Name: "Partner with a complementary product", Hypothesis: "We believe a partner channel will lower acquisition cost."},
		{Name: "Publish weekly content on one channel", Hypothesis: "We believe consistent content will compound organic traffic."},
	}
}
