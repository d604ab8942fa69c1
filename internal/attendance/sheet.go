// Package attendance — табель одной тренировки: выбор даты, отметки, сохранение.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rusl-cricket/attendance-bot/internal/api"
	"github.com/rusl-cricket/attendance-bot/internal/models"
)

var (
	ErrFutureDate  = errors.New("attendance: date is in the future")
	ErrStale       = errors.New("attendance: result superseded by a newer selection")
	ErrBusy        = errors.New("attendance: save already in progress")
	ErrNoSessionID = errors.New("attendance: backend returned a session without id")
	ErrNotEditing  = errors.New("attendance: nothing to edit")
)

type State int

const (
	SelectingDate State = iota
	LoadingRoster
	Editing
	Saving
	Saved
	Failed
)

func (s State) String() string {
	switch s {
	case SelectingDate:
		return "selecting_date"
	case LoadingRoster:
		return "loading_roster"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Backend — то, что табелю нужно от api.Client.
type Backend interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	GetSessionByDate(ctx context.Context, date string) (*models.SessionAttendance, error)
	CreateSession(ctx context.Context, date string) (*models.PracticeSession, error)
	MarkAttendance(ctx context.Context, sessionID int64, entries []models.MarkEntry) error
}

type Row struct {
	Student models.Student
	Present bool
}

// View — снимок табеля для отрисовки.
type View struct {
	State    State
	Date     string
	Rows     []Row
	Present  int
	Existing bool // на дату уже была тренировка
	Err      error
}

type Sheet struct {
	api Backend
	now func() time.Time
	loc *time.Location

	mu       sync.Mutex
	state    State
	date     string
	seq      uint64
	roster   []models.Student
	present  map[int64]bool
	existing bool
	err      error
}

type Option func(*Sheet)

func WithClock(now func() time.Time) Option { return func(s *Sheet) { s.now = now } }

func WithLocation(loc *time.Location) Option {
	return func(s *Sheet) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(b Backend, opts ...Option) *Sheet {
	s := &Sheet{api: b, now: time.Now, loc: time.Local, present: map[int64]bool{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Today — сегодняшняя дата в часовом поясе табеля.
func (s *Sheet) Today() string { return s.now().In(s.loc).Format(models.DateLayout) }

// SelectDate загружает состав и отметки на дату.
// Если пока шла загрузка выбрали другую дату, результат отбрасывается с ErrStale.
func (s *Sheet) SelectDate(ctx context.Context, date string) error {
	d, err := time.ParseInLocation(models.DateLayout, date, s.loc)
	if err != nil {
		return fmt.Errorf("attendance: bad date %q: %w", date, err)
	}
	date = d.Format(models.DateLayout)
	if date > s.Today() {
		return ErrFutureDate
	}

	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		return ErrBusy
	}
	s.seq++
	seq := s.seq
	s.state = LoadingRoster
	s.date = date
	s.err = nil
	roster := s.roster
	s.mu.Unlock()

	if roster == nil {
		roster, err = s.api.ListStudents(ctx)
		if err != nil {
			return s.loadFailed(seq, err)
		}
		if roster == nil {
			roster = []models.Student{}
		}
	}

	var records []models.StudentAttendanceRecord
	existing := false
	sa, err := s.api.GetSessionByDate(ctx, date)
	switch {
	case errors.Is(err, api.ErrNoSession):
	case err != nil:
		return s.loadFailed(seq, err)
	default:
		records = sa.Attendance
		existing = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrStale
	}
	s.roster = roster
	s.present = make(map[int64]bool, len(roster))
	for _, st := range roster {
		s.present[st.ID] = false
	}
	for _, r := range records {
		if _, ok := s.present[r.StudentID]; ok {
			s.present[r.StudentID] = r.IsPresent
		}
	}
	s.existing = existing
	s.state = Editing
	return nil
}

func (s *Sheet) loadFailed(seq uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrStale
	}
	s.state = SelectingDate
	s.err = err
	return err
}

// Reload сбрасывает кэш состава (после правок в списке студентов).
func (s *Sheet) Reload() {
	s.mu.Lock()
	s.roster = nil
	s.mu.Unlock()
}

// Toggle переключает одного студента. Сеть не трогаем.
func (s *Sheet) Toggle(studentID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Editing, Saved, Failed:
	default:
		return false, ErrNotEditing
	}
	cur, ok := s.present[studentID]
	if !ok {
		return false, fmt.Errorf("attendance: student %d is not on the roster", studentID)
	}
	s.present[studentID] = !cur
	if s.state == Saved {
		s.state = Editing
	}
	return !cur, nil
}

// SetAll отмечает всех присутствующими или отсутствующими.
func (s *Sheet) SetAll(present bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Editing, Saved, Failed:
	default:
		return ErrNotEditing
	}
	for id := range s.present {
		s.present[id] = present
	}
	return nil
}

// Entries — ровно одна запись на каждого студента состава, в порядке состава.
func (s *Sheet) Entries() []models.MarkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

func (s *Sheet) entriesLocked() []models.MarkEntry {
	out := make([]models.MarkEntry, 0, len(s.roster))
	for _, st := range s.roster {
		out = append(out, models.MarkEntry{StudentID: st.ID, IsPresent: s.present[st.ID]})
	}
	return out
}

// Save: get-or-create тренировки на дату, затем полный табель.
// Повторное сохранение той же даты перезаписывает отметки той же тренировки.
func (s *Sheet) Save(ctx context.Context) (*models.PracticeSession, error) {
	s.mu.Lock()
	switch s.state {
	case Saving:
		s.mu.Unlock()
		return nil, ErrBusy
	case Editing, Saved, Failed:
	default:
		s.mu.Unlock()
		return nil, ErrNotEditing
	}
	s.state = Saving
	s.err = nil
	date := s.date
	entries := s.entriesLocked()
	s.mu.Unlock()

	sess, err := s.api.CreateSession(ctx, date)
	if err == nil && (sess == nil || sess.ID == 0) {
		err = ErrNoSessionID
	}
	if err == nil {
		err = s.api.MarkAttendance(ctx, sess.ID, entries)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Failed
		s.err = err
		return nil, err
	}
	s.state = Saved
	s.existing = true
	return sess, nil
}

// Snapshot — копия состояния для отрисовки.
func (s *Sheet) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{State: s.state, Date: s.date, Existing: s.existing, Err: s.err}
	if s.state == SelectingDate || s.state == LoadingRoster {
		return v
	}
	v.Rows = make([]Row, 0, len(s.roster))
	for _, st := range s.roster {
		p := s.present[st.ID]
		if p {
			v.Present++
		}
		v.Rows = append(v.Rows, Row{Student: st, Present: p})
	}
	return v
}
