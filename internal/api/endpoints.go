package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rusl-cricket/attendance-bot/internal/models"
)

// ---------- auth ----------

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.doJSON(ctx, call{endpoint: "auth_login", method: http.MethodPost, path: "/auth/login", in: req, anonymous: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register возвращает текст подтверждения бэкенда (он отвечает plain text).
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	raw, _, err := c.do(ctx, call{endpoint: "auth_register", method: http.MethodPost, path: "/auth/register", in: req, anonymous: true})
	if err != nil {
		return "", err
	}
	return strings.Trim(string(bytes.TrimSpace(raw)), `"`), nil
}

// ---------- students ----------

func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := c.doJSON(ctx, call{endpoint: "students_list", method: http.MethodGet, path: "/students"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var out models.Student
	if err := c.doJSON(ctx, call{endpoint: "students_get", method: http.MethodGet, path: studentPath(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateStudent(ctx context.Context, s models.Student) (*models.Student, error) {
	s.ID, s.CreatedAt = 0, nil
	var out models.Student
	if err := c.doJSON(ctx, call{endpoint: "students_create", method: http.MethodPost, path: "/students", in: s}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStudent(ctx context.Context, id int64, s models.Student) (*models.Student, error) {
	var out models.Student
	if err := c.doJSON(ctx, call{endpoint: "students_update", method: http.MethodPut, path: studentPath(id), in: s}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	_, _, err := c.do(ctx, call{endpoint: "students_delete", method: http.MethodDelete, path: studentPath(id)})
	return err
}

func studentPath(id int64) string { return "/students/" + strconv.FormatInt(id, 10) }

// ---------- attendance ----------

// CreateSession создаёт (или возвращает существующую) тренировку на дату.
// Дата уходит и в теле, и в query: бэкенд читает её как request param.
func (c *Client) CreateSession(ctx context.Context, date string) (*models.PracticeSession, error) {
	var out models.PracticeSession
	err := c.doJSON(ctx, call{
		endpoint: "attendance_session_create",
		method:   http.MethodPost,
		path:     "/attendance/session",
		query:    url.Values{"date": {date}},
		in:       map[string]string{"date": date},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkAttendance(ctx context.Context, sessionID int64, entries []models.MarkEntry) error {
	if entries == nil {
		entries = []models.MarkEntry{}
	}
	_, _, err := c.do(ctx, call{
		endpoint: "attendance_mark",
		method:   http.MethodPost,
		path:     "/attendance/mark",
		in:       models.MarkRequest{SessionID: sessionID, Attendance: entries},
	})
	return err
}

// GetSessionByDate: нет тренировки (404/204/пустое тело/нет session) → ErrNoSession.
func (c *Client) GetSessionByDate(ctx context.Context, date string) (*models.SessionAttendance, error) {
	raw, status, err := c.do(ctx, call{
		endpoint: "attendance_session_by_date",
		method:   http.MethodGet,
		path:     "/attendance/session/" + url.PathEscape(date),
	})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if status == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, ErrNoSession
	}
	var out models.SessionAttendance
	if err := decode(raw, &out); err != nil {
		return nil, fmt.Errorf("api attendance_session_by_date: decode: %w", err)
	}
	if out.Session == nil {
		return nil, ErrNoSession
	}
	return &out, nil
}

func (c *Client) RecentAttendance(ctx context.Context) ([]models.PracticeAttendance, error) {
	var out []models.PracticeAttendance
	if err := c.doJSON(ctx, call{endpoint: "attendance_recent", method: http.MethodGet, path: "/attendance/recent"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---------- reports ----------

func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.doJSON(ctx, call{endpoint: "reports_dashboard", method: http.MethodGet, path: "/reports/dashboard"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MonthlyAttendance(ctx context.Context, year, month int) ([]models.MonthlyAttendance, error) {
	var out []models.MonthlyAttendance
	err := c.doJSON(ctx, call{
		endpoint: "reports_monthly",
		method:   http.MethodGet,
		path:     "/reports/monthly",
		query:    url.Values{"year": {strconv.Itoa(year)}, "month": {strconv.Itoa(month)}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StudentReport(ctx context.Context, id int64) (*models.StudentReport, error) {
	var out models.StudentReport
	path := "/reports/student/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, call{endpoint: "reports_student", method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PersonalStats — статистика текущего студента (по токену).
func (c *Client) PersonalStats(ctx context.Context) (*models.StudentStats, error) {
	var out models.StudentStats
	if err := c.doJSON(ctx, call{endpoint: "reports_personal", method: http.MethodGet, path: "/reports/student"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
