package models

import "time"

// Traveler is a named participant of a booking.
type Traveler struct {
	ID             int64      `json:"id"`
	BookingID      int64      `json:"bookingId"`
	FullName       string     `json:"fullName"`
	PassportNumber string     `json:"passportNumber,omitempty"`
	Nationality    string     `json:"nationality,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	MedicalNotes   string     `json:"medicalNotes,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
