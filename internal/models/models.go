package models

import "sort"

// BookingDraft накопленные ответы мастера бронирования. Какие поля
// заполнены, определяется текущим шагом, а не динамической картой.
type BookingDraft struct {
	Service       string `json:"service,omitempty"`
	Date          string `json:"date,omitempty"` // YYYY-MM-DD
	SelectedTimes []int  `json:"selected_times,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// AdminDraft состояние админского под-флоу управления VIP реестром.
type AdminDraft struct {
	TargetUserID int64  `json:"target_user_id,omitempty"`
	Name         string `json:"name,omitempty"`
}

type UserState struct {
	UserID      int64         `json:"user_id"`
	CurrentStep string        `json:"current_step"`
	Draft       *BookingDraft `json:"draft,omitempty"`
	Admin       *AdminDraft   `json:"admin,omitempty"`
}

// EnsureDraft возвращает черновик, создавая его при необходимости.
func (s *UserState) EnsureDraft() *BookingDraft {
	if s.Draft == nil {
		s.Draft = &BookingDraft{}
	}
	return s.Draft
}

func (s *UserState) EnsureAdmin() *AdminDraft {
	if s.Admin == nil {
		s.Admin = &AdminDraft{}
	}
	return s.Admin
}

// ToggleTime добавляет или убирает час из выбора, возвращает true если
// час теперь выбран.
func (d *BookingDraft) ToggleTime(hour int) bool {
	for i, h := range d.SelectedTimes {
		if h == hour {
			d.SelectedTimes = append(d.SelectedTimes[:i], d.SelectedTimes[i+1:]...)
			return false
		}
	}
	d.SelectedTimes = append(d.SelectedTimes, hour)
	sort.Ints(d.SelectedTimes)
	return true
}

func (d *BookingDraft) HasTime(hour int) bool {
	for _, h := range d.SelectedTimes {
		if h == hour {
			return true
		}
	}
	return false
}
