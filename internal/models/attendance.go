package models

import "time"

// DateLayout — календарный день в том виде, в каком его ждёт бэкенд.
const DateLayout = "2006-01-02"

type Creator struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type PracticeSession struct {
	ID        int64      `json:"id"`
	Date      string     `json:"date"`
	CreatedBy *Creator   `json:"createdBy,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type StudentAttendanceRecord struct {
	StudentID    int64  `json:"studentId"`
	StudentRegID string `json:"studentRegId"`
	StudentName  string `json:"studentName"`
	IsPresent    bool   `json:"isPresent"`
}

type SessionAttendance struct {
	Session    *PracticeSession          `json:"session"`
	Attendance []StudentAttendanceRecord `json:"attendance"`
}

// MarkEntry — одна строка отправляемого табеля.
type MarkEntry struct {
	StudentID int64 `json:"studentId"`
	IsPresent bool  `json:"isPresent"`
}

type MarkRequest struct {
	SessionID  int64       `json:"sessionId"`
	Attendance []MarkEntry `json:"attendance"`
}

// PracticeAttendance — недавняя тренировка со списком присутствовавших.
type PracticeAttendance struct {
	ID                  int64    `json:"id"`
	Date                string   `json:"date"`
	PresentStudentNames []string `json:"presentStudentNames"`
}
