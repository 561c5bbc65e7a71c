package database

import "errors"

var (
	// ErrSlotTaken один из запрошенных часов уже занят активной бронью.
	ErrSlotTaken = errors.New("slot already taken")

	ErrBookingNotFound = errors.New("booking not found")

	// ErrAlreadyPaid операция невозможна: бронь уже оплачена.
	ErrAlreadyPaid = errors.New("booking already paid")

	// ErrNotPayable бронь не в статусе ожидания оплаты.
	ErrNotPayable = errors.New("booking is not awaiting payment")

	ErrVIPNotFound = errors.New("vip user not found")

	// Ошибки валидации заявки, живут рядом с остальными доменными
	ErrPastDate   = errors.New("booking date is in the past")
	ErrDateTooFar = errors.New("booking date is too far in the future")
	ErrDayOff     = errors.New("studio is closed on this day")
	ErrNoTimes    = errors.New("no time slots selected")
)
