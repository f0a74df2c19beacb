package fraud

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371

var (
	currencies       = []string{"dop", "usd"}
	transactionTypes = []string{"transfer", "request", "withdrawal", "deposit"}
	platforms        = []string{"ios", "android", "web"}
)

// Point is the lat/lng pair every stored location carries.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func PointFrom(raw json.RawMessage) (Point, bool) {
	var p Point
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil {
		return Point{}, false
	}
	return p, true
}

// Features is the vector the classifier scores, in its expected order.
type Features struct {
	Speed           float64 `json:"speed"`
	Distance        float64 `json:"distance"`
	Amount          float64 `json:"amount"`
	Currency        int     `json:"currency"`
	TransactionType int     `json:"transactionType"`
	Platform        int     `json:"platform"`
	IsRecurring     int     `json:"isRecurring"`
}

func (f Features) Vector() []float64 {
	return []float64{
		f.Speed,
		f.Distance,
		f.Amount,
		float64(f.Currency),
		float64(f.TransactionType),
		float64(f.Platform),
		float64(f.IsRecurring),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Distance is the great-circle distance between a and b in km, 2 places.
func Distance(a, b Point) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(b.Latitude - a.Latitude)
	dLon := rad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Latitude))*math.Cos(rad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return round(earthRadiusKm*c, 2)
}

// Speed is km/h over elapsed, 2 places. Zero when no time passed.
func Speed(distanceKm float64, elapsed time.Duration) float64 {
	hours := elapsed.Hours()
	if hours <= 0 {
		return 0
	}
	return round(distanceKm/hours, 2)
}

func indexOf(list []string, v string) int {
	v = strings.ToLower(v)
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

// Input is one transfer as the feature builder sees it.
type Input struct {
	Location        Point
	Amount          decimal.Decimal
	Currency        string
	TransactionType string
	Platform        string
	IsRecurring     bool
	At              time.Time
}

// Previous is the sender's last transfer, if any.
type Previous struct {
	Location Point
	At       time.Time
	Audited  bool
}

// Build computes the behavioral features of in relative to prev. An audited
// previous transfer was already reviewed, so it does not count as movement.
func Build(in Input, prev *Previous) Features {
	var distance, speed float64
	if prev != nil && !prev.Audited {
		distance = Distance(prev.Location, in.Location)
		speed = Speed(distance, in.At.Sub(prev.At))
	}
	amount, _ := in.Amount.Round(2).Float64()
	recurring := 0
	if in.IsRecurring {
		recurring = 1
	}
	return Features{
		Speed:           speed,
		Distance:        distance,
		Amount:          amount,
		Currency:        indexOf(currencies, in.Currency),
		TransactionType: indexOf(transactionTypes, in.TransactionType),
		Platform:        indexOf(platforms, in.Platform),
		IsRecurring:     recurring,
	}
}
