package model

// SIPRequest carries the assumptions for a systematic-investment-plan
// projection. AnnualReturn is a pointer on purpose: the engine refuses to
// assume a return rate, so the caller must set it explicitly.
type SIPRequest struct {
	MonthlyInvestment float64  `json:"monthly_investment"`
	TargetAmount      float64  `json:"target_amount"`
	Years             int      `json:"years" binding:"required,gt=0"`
	AnnualReturn      *float64 `json:"annual_return" binding:"required"`
	InflationRate     float64  `json:"inflation_rate"`
	StepUpRate        float64  `json:"step_up_rate"`
}

// SIPParameters echoes the assumptions a projection was computed from.
type SIPParameters struct {
	Years         int     `json:"years"`
	AnnualReturn  float64 `json:"annual_return"`
	InflationRate float64 `json:"inflation_rate"`
	StepUpRate    float64 `json:"step_up_rate"`
}

// YearlyProjection is one row of the year-by-year projection table.
type YearlyProjection struct {
	Year       int     `json:"year"`
	MonthlySIP float64 `json:"monthly_sip"`
	Invested   float64 `json:"invested"`
	Corpus     float64 `json:"corpus"`
	Returns    float64 `json:"returns"`
}

// SIPProjection is the immutable result of a projection. All monetary fields
// are rounded to two decimals.
type SIPProjection struct {
	MonthlySIP       float64            `json:"monthly_sip"`
	TotalInvestment  float64            `json:"total_investment"`
	FutureValue      float64            `json:"future_value"`
	TotalReturns     float64            `json:"total_returns"`
	ReturnsPercent   float64            `json:"returns_percent"`
	WealthMultiplier float64            `json:"wealth_multiplier"`
	Projections      []YearlyProjection `json:"projections"`
	Parameters       SIPParameters      `json:"parameters"`
}

// RetirementRequest carries the inputs for the retirement-corpus solver.
// PostRetirementReturn must be supplied; it is never defaulted.
type RetirementRequest struct {
	CurrentAge           int      `json:"current_age" binding:"required,gt=0"`
	RetirementAge        int      `json:"retirement_age" binding:"required,gtfield=CurrentAge"`
	MonthlyExpenses      float64  `json:"monthly_expenses" binding:"required,gt=0"`
	InflationRate        float64  `json:"inflation_rate"`
	PostRetirementReturn *float64 `json:"post_retirement_return" binding:"required"`
	LifeExpectancy       int      `json:"life_expectancy"`
}

// RetirementPlan is the solver output.
type RetirementPlan struct {
	RequiredCorpus        float64 `json:"required_corpus"`
	FutureMonthlyExpenses float64 `json:"future_monthly_expenses"`
	YearsToRetirement     int     `json:"years_to_retirement"`
	RetirementYears       int     `json:"retirement_years"`
}
