package service

import (
	"fmt"
	"time"

	"github.com/yourorg/portfolio-insights/internal/model"
)

// NSE trading session: Mon-Fri, 09:15 to 15:30 IST.
var (
	sessionOpen  = 9*time.Hour + 15*time.Minute
	sessionClose = 15*time.Hour + 30*time.Minute
)

// MarketStatusService answers whether the exchange is currently trading.
type MarketStatusService struct {
	location *time.Location
	now      func() time.Time
}

// NewMarketStatusService creates a market status service. It falls back to a
// fixed IST offset when the zone database is unavailable.
func NewMarketStatusService() *MarketStatusService {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return &MarketStatusService{
		location: loc,
		now:      time.Now,
	}
}

// Status reports the current session state with a user-facing message.
func (s *MarketStatusService) Status() model.MarketStatus {
	now := s.now().In(s.location)

	weekday := now.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday

	sinceMidnight := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second
	inSession := sinceMidnight >= sessionOpen && sinceMidnight <= sessionClose

	isOpen := !isWeekend && inSession

	return model.MarketStatus{
		IsOpen:      isOpen,
		IsWeekend:   isWeekend,
		CurrentTime: now.Format("03:04 PM"),
		CurrentDay:  now.Weekday().String(),
		Message:     statusMessage(isOpen, isWeekend, sinceMidnight, now),
	}
}

func statusMessage(isOpen, isWeekend bool, sinceMidnight time.Duration, now time.Time) string {
	if isWeekend {
		return "Market closed for weekend. Opens Monday at 9:15 AM IST"
	}
	if !isOpen {
		if sinceMidnight < sessionOpen {
			return fmt.Sprintf("Market opens today at 9:15 AM IST (Currently %s)", now.Format("03:04 PM"))
		}
		return "Market closed at 3:30 PM IST. Opens tomorrow at 9:15 AM IST"
	}
	return "Market is OPEN - real-time trading active"
}
