package models

type TopAttendee struct {
	Name                 string  `json:"name"`
	AttendancePercentage float64 `json:"attendancePercentage"`
}

type DashboardStats struct {
	TotalPracticeDays int64        `json:"totalPracticeDays"`
	TotalPlayers      int64        `json:"totalPlayers"`
	AverageAttendance float64      `json:"averageAttendance"`
	TopAttendee       *TopAttendee `json:"topAttendee"`
}

type MonthlyAttendance struct {
	Month   string `json:"month"`
	Present int64  `json:"present"`
	Absent  int64  `json:"absent"`
}

type StudentStats struct {
	AttendancePercentage float64         `json:"attendancePercentage"`
	SessionsAttended     int64           `json:"sessionsAttended"`
	TotalSessions        int64           `json:"totalSessions"`
	RecentAttendance     []DayAttendance `json:"recentAttendance"`
}
