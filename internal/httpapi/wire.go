package httpapi

import "adherence-tracker/internal/compliance"

// Reserved negative sentinel codes for the complianceData array. Pending is a
// display state, not a stored sentinel: pending days carry 0 in the array and
// are listed out-of-band in pendingDays.
const (
	codeNotSignedUp = -1
	codeNoRegimen   = -2
	codeIntroduced  = -3
	codeRest        = -4
)

// weekResponse is the serialized form of a computed week.
type weekResponse struct {
	Week                 string              `json:"week"`
	Days                 []string            `json:"days"`
	ComplianceData       []float64           `json:"complianceData"`
	PendingDays          []string            `json:"pendingDays"`
	IntroducedUnitsByDay map[string][]string `json:"introducedUnitsByDay"`
}

func encodeWeek(week string, result *compliance.Result) weekResponse {
	resp := weekResponse{
		Week:                 week,
		Days:                 result.DayKeys[:],
		ComplianceData:       make([]float64, len(result.Days)),
		PendingDays:          []string{},
		IntroducedUnitsByDay: result.IntroducedUnits,
	}
	for i, d := range result.Days {
		switch d.Kind {
		case compliance.KindRatio:
			resp.ComplianceData[i] = d.Ratio
		case compliance.KindNotSignedUp:
			resp.ComplianceData[i] = codeNotSignedUp
		case compliance.KindNoRegimen:
			resp.ComplianceData[i] = codeNoRegimen
		case compliance.KindIntroduced:
			resp.ComplianceData[i] = codeIntroduced
		case compliance.KindRest:
			resp.ComplianceData[i] = codeRest
		case compliance.KindPending:
			resp.ComplianceData[i] = 0
			resp.PendingDays = append(resp.PendingDays, result.DayKeys[i])
		}
	}
	return resp
}
