package service

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// Usage errors surfaced by the projection engine. Rates are never silently
// defaulted: a missing return assumption is the caller's mistake.
var (
	ErrAnnualReturnRequired  = errors.New("annual_return is required - expected return rate must be specified")
	ErrYearsRequired         = errors.New("years must be specified and greater than 0")
	ErrAmountRequired        = errors.New("either monthly_investment or target_amount must be provided")
	ErrPostRetirementReturn  = errors.New("post_retirement_return must be specified")
	ErrRetirementAgeTooEarly = errors.New("retirement_age must be greater than current_age")
)

// defaultLifeExpectancy is used when the retirement request leaves the field
// unset.
const defaultLifeExpectancy = 85

// SIPCalculator projects compounding growth for systematic investment plans.
// Every projection is a pure function of its inputs.
type SIPCalculator struct {
	logger *zap.Logger
}

// NewSIPCalculator creates a new SIP calculator
func NewSIPCalculator(logger *zap.Logger) *SIPCalculator {
	return &SIPCalculator{logger: logger}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// annuityFutureValue is the ordinary-annuity closed form, degenerating to
// simple accumulation at zero rate.
func annuityFutureValue(payment, monthlyRate float64, months int) float64 {
	if monthlyRate == 0 {
		return payment * float64(months)
	}
	return payment * (math.Pow(1+monthlyRate, float64(months)) - 1) / monthlyRate
}

// Calculate produces a SIP projection. AnnualReturn and Years are mandatory;
// one of MonthlyInvestment or TargetAmount must be supplied. When only a
// target is given, the target is first inflated over the horizon and the
// level monthly payment reaching it is solved for.
func (c *SIPCalculator) Calculate(req model.SIPRequest) (*model.SIPProjection, error) {
	if req.AnnualReturn == nil {
		return nil, ErrAnnualReturnRequired
	}
	if req.Years <= 0 {
		return nil, ErrYearsRequired
	}
	if req.MonthlyInvestment == 0 && req.TargetAmount == 0 {
		return nil, ErrAmountRequired
	}

	annualReturn := *req.AnnualReturn
	monthlyRate := annualReturn / 100 / 12
	months := req.Years * 12

	monthlyInvestment := req.MonthlyInvestment
	if req.TargetAmount != 0 && monthlyInvestment == 0 {
		inflatedTarget := req.TargetAmount * math.Pow(1+req.InflationRate/100, float64(req.Years))
		if monthlyRate == 0 {
			monthlyInvestment = inflatedTarget / float64(months)
		} else {
			monthlyInvestment = inflatedTarget * monthlyRate / (math.Pow(1+monthlyRate, float64(months)) - 1)
		}
	}

	var futureValue, totalInvestment float64
	if req.StepUpRate == 0 {
		futureValue = annuityFutureValue(monthlyInvestment, monthlyRate, months)
		totalInvestment = monthlyInvestment * float64(months)
	} else {
		futureValue, totalInvestment = c.stepUpFutureValue(monthlyInvestment, req.Years, monthlyRate, req.StepUpRate)
	}

	projections := c.yearlyProjections(monthlyInvestment, req.Years, monthlyRate, req.StepUpRate)

	totalReturns := futureValue - totalInvestment
	returnsPercent := 0.0
	wealthMultiplier := 0.0
	if totalInvestment > 0 {
		returnsPercent = totalReturns / totalInvestment * 100
		wealthMultiplier = futureValue / totalInvestment
	}

	return &model.SIPProjection{
		MonthlySIP:       round2(monthlyInvestment),
		TotalInvestment:  round2(totalInvestment),
		FutureValue:      round2(futureValue),
		TotalReturns:     round2(totalReturns),
		ReturnsPercent:   round2(returnsPercent),
		WealthMultiplier: round2(wealthMultiplier),
		Projections:      projections,
		Parameters: model.SIPParameters{
			Years:         req.Years,
			AnnualReturn:  annualReturn,
			InflationRate: req.InflationRate,
			StepUpRate:    req.StepUpRate,
		},
	}, nil
}

// stepUpFutureValue accumulates the plan year by year: each year's twelve
// contributions grow to the plan's end using the remaining-months annuity
// factor, and the contribution steps up at the start of each year. The
// step_up_rate==0 case is handled by the closed form in Calculate, not here;
// this accumulation does not degenerate to it.
func (c *SIPCalculator) stepUpFutureValue(initialSIP float64, years int, monthlyRate, stepUpRate float64) (float64, float64) {
	totalInvestment := 0.0
	futureValue := 0.0
	currentSIP := initialSIP
	annualStepUp := stepUpRate / 100

	for year := 0; year < years; year++ {
		yearInvestment := currentSIP * 12
		remainingMonths := (years - year) * 12
		var yearFV float64
		if monthlyRate == 0 {
			yearFV = yearInvestment
		} else {
			yearFV = yearInvestment * (math.Pow(1+monthlyRate, float64(remainingMonths)) - 1) / monthlyRate / 12
		}
		totalInvestment += yearInvestment
		futureValue += yearFV
		currentSIP *= 1 + annualStepUp
	}

	return futureValue, totalInvestment
}

// yearlyProjections builds the year-by-year table. Cumulative invested is
// monotonically increasing by construction.
func (c *SIPCalculator) yearlyProjections(monthlySIP float64, years int, monthlyRate, stepUpRate float64) []model.YearlyProjection {
	projections := make([]model.YearlyProjection, 0, years)
	currentSIP := monthlySIP
	cumulativeInvestment := 0.0
	cumulativeValue := 0.0

	for year := 1; year <= years; year++ {
		yearInvestment := currentSIP * 12
		cumulativeInvestment += yearInvestment

		var corpus float64
		if stepUpRate == 0 {
			corpus = annuityFutureValue(monthlySIP, monthlyRate, year*12)
		} else {
			yearFV := yearInvestment
			if monthlyRate != 0 {
				yearFV = yearInvestment * (math.Pow(1+monthlyRate, 12) - 1) / monthlyRate / 12
			}
			cumulativeValue += yearFV
			corpus = cumulativeValue
		}

		projections = append(projections, model.YearlyProjection{
			Year:       year,
			MonthlySIP: round2(currentSIP),
			Invested:   round2(cumulativeInvestment),
			Corpus:     round2(corpus),
			Returns:    round2(corpus - cumulativeInvestment),
		})
		currentSIP *= 1 + stepUpRate/100
	}

	return projections
}

// RetirementCorpus solves for the corpus needed at retirement: expenses are
// inflated to the retirement date, then a level N-year annuity of those
// inflated expenses is discounted back using the post-retirement monthly
// rate.
func (c *SIPCalculator) RetirementCorpus(req model.RetirementRequest) (*model.RetirementPlan, error) {
	if req.PostRetirementReturn == nil {
		return nil, ErrPostRetirementReturn
	}
	if req.RetirementAge <= req.CurrentAge {
		return nil, ErrRetirementAgeTooEarly
	}

	lifeExpectancy := req.LifeExpectancy
	if lifeExpectancy == 0 {
		lifeExpectancy = defaultLifeExpectancy
	}

	yearsToRetirement := req.RetirementAge - req.CurrentAge
	retirementYears := lifeExpectancy - req.RetirementAge

	futureMonthlyExpenses := req.MonthlyExpenses * math.Pow(1+req.InflationRate/100, float64(yearsToRetirement))
	monthlyRate := *req.PostRetirementReturn / 100 / 12
	retirementMonths := retirementYears * 12

	var requiredCorpus float64
	if monthlyRate == 0 {
		requiredCorpus = futureMonthlyExpenses * float64(retirementMonths)
	} else {
		requiredCorpus = futureMonthlyExpenses * (1 - math.Pow(1+monthlyRate, float64(-retirementMonths))) / monthlyRate
	}

	return &model.RetirementPlan{
		RequiredCorpus:        round2(requiredCorpus),
		FutureMonthlyExpenses: round2(futureMonthlyExpenses),
		YearsToRetirement:     yearsToRetirement,
		RetirementYears:       retirementYears,
	}, nil
}
