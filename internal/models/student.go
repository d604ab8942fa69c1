package models

import "time"

type Student struct {
	ID            int64      `json:"id,omitempty"`
	StudentID     string     `json:"studentId" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	Faculty       string     `json:"faculty" validate:"required"`
	Year          int        `json:"year" validate:"gte=1"`
	ContactNumber string     `json:"contactNumber,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

type StudentReport struct {
	Student              Student         `json:"student"`
	TotalSessions        int64           `json:"totalSessions"`
	AttendedSessions     int64           `json:"attendedSessions"`
	AttendancePercentage float64         `json:"attendancePercentage"`
	AttendanceHistory    []DayAttendance `json:"attendanceHistory"`
}

type DayAttendance struct {
	Date      string `json:"date"`
	IsPresent bool   `json:"isPresent"`
}
