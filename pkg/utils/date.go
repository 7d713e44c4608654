package utils

import "time"

func ParseDate(dateStr string) (*time.Time, error) {
	var date time.Time

	if dateStr != "" {
		incomingDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, err
		}

		date = incomingDate
	}

	return &date, nil
}

// DaysInMonth retorna a quantidade de dias do mês da data informada
func DaysInMonth(t time.Time) int {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// IsBeginOfMonth retorna verdadeiro quando a data é o primeiro dia do mês
func IsBeginOfMonth(t time.Time) bool {
	return t.Day() == 1
}

// SameMonth retorna verdadeiro quando as duas datas pertencem ao mesmo mês
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// TruncateToDay zera o componente de hora da data
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
