package features

import (
	"math"
	"time"

	"salesprep/internal/table"
)

// seasons uses the southern hemisphere calendar
var seasons = map[time.Month]string{
	time.December:  "summer",
	time.January:   "summer",
	time.February:  "summer",
	time.March:     "autumn",
	time.April:     "autumn",
	time.May:       "autumn",
	time.June:      "winter",
	time.July:      "winter",
	time.August:    "winter",
	time.September: "spring",
	time.October:   "spring",
	time.November:  "spring",
}

// Season returns the southern hemisphere season of m
func Season(m time.Month) string {
	return seasons[m]
}

// MonthCycle encodes a month on the unit circle
func MonthCycle(m time.Month) (sin, cos float64) {
	angle := 2 * math.Pi * float64(m) / 12
	return math.Sin(angle), math.Cos(angle)
}

func (d *Deriver) temporal(b *builder) {
	name, ok := d.Schema.Resolve(b.t, table.RoleDate)
	if !ok {
		return
	}
	col, _ := b.t.Column(name)
	n := b.rows()

	year := make([]float64, n)
	month := make([]float64, n)
	day := make([]float64, n)
	monthSin := make([]float64, n)
	monthCos := make([]float64, n)
	weekday := make([]string, n)
	season := make([]string, n)
	weekend := make([]bool, n)
	valid := make([]bool, n)

	for i := 0; i < n; i++ {
		ts, ok := dateAt(col, i)
		if !ok {
			year[i], month[i], day[i] = math.NaN(), math.NaN(), math.NaN()
			monthSin[i], monthCos[i] = math.NaN(), math.NaN()
			continue
		}
		valid[i] = true
		year[i] = float64(ts.Year())
		month[i] = float64(ts.Month())
		day[i] = float64(ts.Day())
		monthSin[i], monthCos[i] = MonthCycle(ts.Month())
		weekday[i] = ts.Weekday().String()
		weekend[i] = ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday
		season[i] = Season(ts.Month())
	}

	b.add(table.NewNumber(ColYear, year))
	b.add(table.NewNumber(ColMonth, month))
	b.add(table.NewNumber(ColDay, day))
	b.add(table.NewText(ColWeekdayName, weekday, valid))
	b.add(table.NewBool(ColIsWeekend, weekend, append([]bool(nil), valid...)))
	b.add(table.NewNumber(ColMonthSin, monthSin))
	b.add(table.NewNumber(ColMonthCos, monthCos))
	b.add(table.NewText(ColSeason, season, append([]bool(nil), valid...)))
}
