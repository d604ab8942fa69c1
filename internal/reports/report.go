// Package reports — сводка для тренеров и разбор по дате.
package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rusl-cricket/attendance-bot/internal/api"
	"github.com/rusl-cricket/attendance-bot/internal/export"
	"github.com/rusl-cricket/attendance-bot/internal/models"
)

var ErrStale = errors.New("reports: result superseded by a newer selection")

type Backend interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	MonthlyAttendance(ctx context.Context, year, month int) ([]models.MonthlyAttendance, error)
	GetSessionByDate(ctx context.Context, date string) (*models.SessionAttendance, error)
}

type DailyState int

const (
	DailyIdle DailyState = iota
	DailyLoading
	DailyLoaded
	DailyNotFound // на дату тренировки не было — это не «все отсутствовали»
	DailyFailed
)

type Daily struct {
	State   DailyState
	Date    string
	Records []models.StudentAttendanceRecord
	Present int
	Err     error
}

type Report struct {
	api Backend
	now func() time.Time
	loc *time.Location

	mu      sync.Mutex
	stats   *models.DashboardStats
	monthly []models.MonthlyAttendance
	seq     uint64
	daily   Daily
}

type Option func(*Report)

func WithClock(now func() time.Time) Option { return func(r *Report) { r.now = now } }

func WithLocation(loc *time.Location) Option {
	return func(r *Report) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func New(b Backend, opts ...Option) *Report {
	r := &Report{api: b, now: time.Now, loc: time.Local}
	for _, o := range opts {
		o(r)
	}
	return r
}

// LoadOverview — статистика и помесячный ряд за текущий год/месяц.
// При ошибке остаётся прошлое состояние.
func (r *Report) LoadOverview(ctx context.Context) error {
	now := r.now().In(r.loc)
	stats, err := r.api.DashboardStats(ctx)
	if err != nil {
		return err
	}
	monthly, err := r.api.MonthlyAttendance(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.stats = stats
	r.monthly = monthly
	r.mu.Unlock()
	return nil
}

// Overview — копия загруженной сводки (nil, если ещё не грузили).
func (r *Report) Overview() (*models.DashboardStats, []models.MonthlyAttendance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats *models.DashboardStats
	if r.stats != nil {
		cp := *r.stats
		stats = &cp
	}
	return stats, append([]models.MonthlyAttendance(nil), r.monthly...)
}

// SelectDate грузит состав тренировки на дату. Устаревший ответ отбрасывается с ErrStale.
func (r *Report) SelectDate(ctx context.Context, date string) error {
	d, err := time.ParseInLocation(models.DateLayout, date, r.loc)
	if err != nil {
		return fmt.Errorf("reports: bad date %q: %w", date, err)
	}
	date = d.Format(models.DateLayout)

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.daily = Daily{State: DailyLoading, Date: date}
	r.mu.Unlock()

	sa, err := r.api.GetSessionByDate(ctx, date)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		return ErrStale
	}
	switch {
	case errors.Is(err, api.ErrNoSession):
		r.daily = Daily{State: DailyNotFound, Date: date}
		return nil
	case err != nil:
		r.daily = Daily{State: DailyFailed, Date: date, Err: err}
		return err
	}
	dl := Daily{State: DailyLoaded, Date: date, Records: sa.Attendance}
	for _, rec := range sa.Attendance {
		if rec.IsPresent {
			dl.Present++
		}
	}
	r.daily = dl
	return nil
}

// ClearDate возвращает к сводке.
func (r *Report) ClearDate() {
	r.mu.Lock()
	r.seq++
	r.daily = Daily{}
	r.mu.Unlock()
}

func (r *Report) Daily() Daily {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.daily
	d.Records = append([]models.StudentAttendanceRecord(nil), d.Records...)
	return d
}

// Table — то, что сейчас на экране: состав выбранной даты, иначе помесячная сводка.
// Пустая таблица значит, что выгружать нечего.
func (r *Report) Table() export.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.daily.State == DailyLoaded {
		return export.Daily(r.daily.Date, r.daily.Records)
	}
	return export.Monthly(r.monthly)
}
