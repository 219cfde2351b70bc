// Package month содержит календарную арифметику для расчёта периода подписки.
package month

import "time"

// Add прибавляет к дате заданное количество календарных месяцев.
//
// В отличие от time.AddDate, день месяца прижимается к последнему дню
// целевого месяца: 31 января + 1 месяц = 28 (29) февраля, а не 2-3 марта.
func Add(t time.Time, months int) time.Time {
	year, mon, day := t.Date()
	firstOfTarget := time.Date(year, mon, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	firstOfTarget = firstOfTarget.AddDate(0, months, 0)

	last := lastDay(firstOfTarget.Year(), firstOfTarget.Month())
	if day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// lastDay возвращает число дней в месяце.
func lastDay(year int, mon time.Month) int {
	return time.Date(year, mon+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
