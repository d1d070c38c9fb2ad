package inflation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Adjustment is a salary restated in end-period money.
type Adjustment struct {
	Salary              decimal.Decimal `json:"salary"`
	StartValue          decimal.Decimal `json:"start_value"`
	EndValue            decimal.Decimal `json:"end_value"`
	AdjustedSalary      decimal.Decimal `json:"adjusted_salary"`
	PurchasingPowerLoss decimal.Decimal `json:"purchasing_power_loss"`
	StartDate           time.Time       `json:"start_date,omitempty"`
	EndDate             time.Time       `json:"end_date,omitempty"`
}

// AdjustSalary computes salary * (endValue / startValue) and the resulting
// purchasing power loss (adjusted - salary).
func AdjustSalary(salary, startValue, endValue decimal.Decimal) (Adjustment, error) {
	if startValue.IsZero() {
		return Adjustment{}, ErrZeroBase
	}
	adjusted := salary.Mul(endValue).Div(startValue)
	return Adjustment{
		Salary:              salary,
		StartValue:          startValue,
		EndValue:            endValue,
		AdjustedSalary:      adjusted,
		PurchasingPowerLoss: adjusted.Sub(salary),
	}, nil
}
