// Package clock предоставляет источник текущего времени.
//
// Все проверки жизненного цикла (пробный период, окончание подписки, срок действия
// документа) считаются относительно времени, полученного из Clock, поэтому в тестах
// его можно зафиксировать.
package clock

import "time"

// Clock возвращает текущее время.
type Clock interface {
	Now() time.Time
}

// Real системные часы в UTC.
type Real struct{}

// Now возвращает текущее время в UTC.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed всегда возвращает одно и то же время.
type Fixed time.Time

// Now возвращает зафиксированное время.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
