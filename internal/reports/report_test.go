package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rusl-cricket/attendance-bot/internal/api"
	"github.com/rusl-cricket/attendance-bot/internal/models"
)

type fakeBackend struct {
	year, month int
	sessions    map[string]*models.SessionAttendance
	entered     chan struct{}
	release     map[string]chan struct{}
}

func (f *fakeBackend) DashboardStats(context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{TotalPracticeDays: 12, TotalPlayers: 30, AverageAttendance: 72.5}, nil
}

func (f *fakeBackend) MonthlyAttendance(_ context.Context, year, month int) ([]models.MonthlyAttendance, error) {
	f.year, f.month = year, month
	return []models.MonthlyAttendance{{Month: "Jan", Present: 40, Absent: 10}, {Month: "Feb", Present: 20, Absent: 5}}, nil
}

func (f *fakeBackend) GetSessionByDate(_ context.Context, date string) (*models.SessionAttendance, error) {
	if ch := f.release[date]; ch != nil {
		f.entered <- struct{}{}
		<-ch
	}
	sa, ok := f.sessions[date]
	if !ok {
		return nil, api.ErrNoSession
	}
	return sa, nil
}

func newFake() *fakeBackend {
	return &fakeBackend{sessions: map[string]*models.SessionAttendance{
		"2025-03-10": {
			Session: &models.PracticeSession{ID: 5, Date: "2025-03-10"},
			Attendance: []models.StudentAttendanceRecord{
				{StudentID: 1, StudentRegID: "TG/1", StudentName: "A", IsPresent: true},
				{StudentID: 2, StudentRegID: "TG/2", StudentName: "B"},
			},
		},
	}}
}

func newReport(f *fakeBackend) *Report {
	now := func() time.Time { return time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC) }
	return New(f, WithClock(now), WithLocation(time.UTC))
}

func TestOverview(t *testing.T) {
	f := newFake()
	r := newReport(f)
	if tb := r.Table(); !tb.Empty() {
		t.Fatal("до загрузки выгружать нечего")
	}
	if err := r.LoadOverview(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.year != 2025 || f.month != 3 {
		t.Fatalf("запросили %d-%d", f.year, f.month)
	}
	stats, monthly := r.Overview()
	if stats.TotalPlayers != 30 || len(monthly) != 2 {
		t.Fatalf("сводка: %+v %+v", stats, monthly)
	}
	if tb := r.Table(); tb.Header[0] != "Month" || len(tb.Rows) != 2 {
		t.Fatalf("таблица: %+v", tb)
	}
}

func TestDailyLoadedAndNotFound(t *testing.T) {
	ctx := context.Background()
	r := newReport(newFake())
	_ = r.LoadOverview(ctx)

	if err := r.SelectDate(ctx, "2025-03-10"); err != nil {
		t.Fatal(err)
	}
	d := r.Daily()
	if d.State != DailyLoaded || d.Present != 1 || len(d.Records) != 2 {
		t.Fatalf("разбор: %+v", d)
	}
	if tb := r.Table(); tb.Header[0] != "Reg ID" || len(tb.Rows) != 2 {
		t.Fatalf("таблица: %+v", tb)
	}

	if err := r.SelectDate(ctx, "2025-03-11"); err != nil {
		t.Fatal(err)
	}
	d = r.Daily()
	if d.State != DailyNotFound || len(d.Records) != 0 {
		t.Fatalf("ожидали NotFound: %+v", d)
	}
	if tb := r.Table(); tb.Header[0] != "Month" {
		t.Fatal("без тренировки выгружается помесячная сводка")
	}

	r.ClearDate()
	if r.Daily().State != DailyIdle {
		t.Fatal("после ClearDate разбора нет")
	}
}

func TestStaleDailyDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	release := make(chan struct{})
	f.entered = make(chan struct{}, 1)
	f.release = map[string]chan struct{}{"2025-03-10": release}
	r := newReport(f)

	done := make(chan error, 1)
	go func() { done <- r.SelectDate(ctx, "2025-03-10") }()
	<-f.entered
	if err := r.SelectDate(ctx, "2025-03-11"); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("ожидали ErrStale, получили %v", err)
	}
	if d := r.Daily(); d.Date != "2025-03-11" || d.State != DailyNotFound {
		t.Fatalf("старый ответ перезаписал новый: %+v", d)
	}
}

func TestBarChart(t *testing.T) {
	out := BarChart([]models.MonthlyAttendance{{Month: "Jan", Present: 40, Absent: 10}, {Month: "Feb", Present: 0, Absent: 5}}, 10)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("строки: %q", out)
	}
	if strings.Count(lines[0], barFull) != 8 || strings.Count(lines[0], barEmpty) != 2 {
		t.Fatalf("Jan: %q", lines[0])
	}
	if strings.Count(lines[1], barFull) != 0 || !strings.HasSuffix(lines[1], "0/5") {
		t.Fatalf("Feb: %q", lines[1])
	}
	if BarChart(nil, 10) != "" {
		t.Fatal("пустой ряд — пустая диаграмма")
	}
}

func TestPieChart(t *testing.T) {
	out := PieChart(75, 20)
	if strings.Count(out, barFull) != 15 || !strings.Contains(out, "Absence 25.0%") {
		t.Fatalf("получили %q", out)
	}
}
