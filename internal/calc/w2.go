package calc

import "strings"

type W2Input struct {
	AnnualWages     float64
	FederalWithheld float64
	State           string
	// StateWages defaults to AnnualWages when zero.
	StateWages float64
}

// W2 holds the numbered wage boxes.
type W2 struct {
	Box1Wages           float64 `json:"box1"`
	Box2FederalWithheld float64 `json:"box2"`
	Box3SocialSecWages  float64 `json:"box3"`
	Box4SocialSecTax    float64 `json:"box4"`
	Box5MedicareWages   float64 `json:"box5"`
	Box6MedicareTax     float64 `json:"box6"`
	Box15State          string  `json:"box15"`
	Box16StateWages     float64 `json:"box16"`
	Box17StateIncomeTax float64 `json:"box17"`
}

func CalculateW2(in W2Input) W2 {
	wages := nonNegative(in.AnnualWages)
	ssWages := wages
	if ssWages > SocialSecurityWageBase {
		ssWages = SocialSecurityWageBase
	}
	state := strings.ToUpper(strings.TrimSpace(in.State))
	stateWages := nonNegative(in.StateWages)
	if stateWages == 0 {
		stateWages = wages
	}

	w := W2{
		Box1Wages:           Round2(wages),
		Box2FederalWithheld: Round2(nonNegative(in.FederalWithheld)),
		Box3SocialSecWages:  Round2(ssWages),
		Box4SocialSecTax:    Round2(ssWages * SocialSecurityRate),
		Box5MedicareWages:   Round2(wages),
		Box6MedicareTax:     Round2(wages * MedicareRate),
		Box15State:          state,
	}
	if state != "" {
		w.Box16StateWages = Round2(stateWages)
		w.Box17StateIncomeTax = Round2(stateWages * StateTaxRate(state))
	}
	return w
}
