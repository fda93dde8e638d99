package enums

type CreditType string

const (
	CreditFree  CreditType = "FREE"
	CreditBoost CreditType = "BOOST"
	CreditNone  CreditType = "NONE"
)

func (c CreditType) Valid() bool {
	switch c {
	case CreditFree, CreditBoost, CreditNone:
		return true
	default:
		return false
	}
}
