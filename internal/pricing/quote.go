package pricing

import "github.com/shopspring/decimal"

// Quote is what a mentee sees before submitting a booking request.
type Quote struct {
	BaseRate  decimal.Decimal `json:"base_rate"`
	Minutes   int             `json:"minutes"`
	PerMinute decimal.Decimal `json:"per_minute"`
	Price     decimal.Decimal `json:"price"`
	Display   string          `json:"display"`
}

func NewQuote(f Formatter, baseRate decimal.Decimal, minutes int) (Quote, error) {
	perMinute, err := PerMinuteRate(baseRate)
	if err != nil {
		return Quote{}, err
	}
	price, err := SessionPrice(baseRate, minutes)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		BaseRate:  baseRate,
		Minutes:   minutes,
		PerMinute: perMinute,
		Price:     price,
		Display:   f.Format(price),
	}, nil
}

// NewServiceQuote prices minutes of a fixed-price service. BaseRate carries
// the listed service price.
func NewServiceQuote(f Formatter, price decimal.Decimal, serviceMinutes, minutes int) (Quote, error) {
	total, err := ServicePrice(price, serviceMinutes, minutes)
	if err != nil {
		return Quote{}, err
	}
	perMinute := decimal.Zero
	if serviceMinutes > 0 {
		perMinute = Round2(price.Div(decimal.NewFromInt(int64(serviceMinutes))))
	}
	return Quote{
		BaseRate:  price,
		Minutes:   minutes,
		PerMinute: perMinute,
		Price:     total,
		Display:   f.Format(total),
	}, nil
}
