package entity

// Supplier is read-only reference data for the demo generator
type Supplier struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	OrgNr       string      `json:"org_nr"`
	VATNumber   string      `json:"vat_number"`
	TrustScore  int         `json:"trust_score"`
	RiskProfile RiskProfile `json:"risk_profile"`
	IBAN        string      `json:"iban"`
}
