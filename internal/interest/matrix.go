package interest

// derivationMatrix is the static topic-of-interest → areas-of-interest
// mapping. Ticking a topic implies interest in its broader areas; the
// reverse is never derived.
var derivationMatrix = map[string][]string{
	"cf_person_toi_net_zero":               {"cf_person_aoi_sustainability", "cf_person_aoi_strategy"},
	"cf_person_toi_infrastructure":         {"cf_person_aoi_operations"},
	"cf_person_toi_digital_transformation": {"cf_person_aoi_technology", "cf_person_aoi_strategy"},
	"cf_person_toi_risk_management":        {"cf_person_aoi_compliance", "cf_person_aoi_operations"},
	"cf_person_toi_workforce":              {"cf_person_aoi_people"},
	"cf_person_toi_finance":                {"cf_person_aoi_strategy", "cf_person_aoi_compliance"},
}

// DerivedAreas returns the AOI keys implied by a topic key, or nil for
// unknown topics.
func DerivedAreas(topicKey string) []string {
	return derivationMatrix[topicKey]
}
