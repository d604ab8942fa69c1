package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
	"github.com/rusl-cricket/attendance-bot/internal/validate"
)

const (
	cbStuView     = "stu_v:"
	cbStuEdit     = "stu_e:"
	cbStuDelete   = "stu_del:"
	cbStuDeleteOK = "stu_delok:"
	cbStuReport   = "stu_r:"
	cbStuAdd      = "stu_add"
	cbStuSearch   = "stu_search"
	cbStuClear    = "stu_clear"
	cbStuRefresh  = "stu_refresh"
	cbStuBack     = "stu_back"
	cbStuSkip     = "stu_skip"
	cbStuKeep     = "stu_keep"
	cbStuCancel   = "stu_cancel"
)

type studentsState struct {
	List        []models.Student
	Query       string
	AwaitSearch bool
	MsgID       int
}

type FormStep string

const (
	FormStudentID FormStep = "student_id"
	FormName      FormStep = "name"
	FormFaculty   FormStep = "faculty"
	FormYear      FormStep = "year"
	FormContact   FormStep = "contact"
)

var formOrder = []FormStep{FormStudentID, FormName, FormFaculty, FormYear, FormContact}

// studentForm — добавление (EditID == 0) или правка студента.
type studentForm struct {
	EditID int64
	Step   FormStep
	S      models.Student
}

var (
	studentStates = fsmutil.NewStates[studentsState]()
	studentForms  = fsmutil.NewStates[studentForm]()
)

// OpenStudents — список студентов (с сохранённым поиском, если он был).
func OpenStudents(ctx context.Context, c *chat.Chat) {
	st := studentStates.Get(c.ID)
	if st == nil {
		st = &studentsState{}
		studentStates.Set(c.ID, st)
	}
	st.AwaitSearch = false
	list, err := c.API.ListStudents(ctx)
	if err != nil {
		c.Fail(ctx, err, "Failed to load students")
		return
	}
	st.List = list
	st.MsgID = c.HTML(renderStudentList(st), studentListKeyboard(st))
}

// filterStudents — поиск по имени или рег. номеру без учёта регистра.
func filterStudents(list []models.Student, q string) []models.Student {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return list
	}
	var out []models.Student
	for _, s := range list {
		if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.StudentID), q) {
			out = append(out, s)
		}
	}
	return out
}

func renderStudentList(st *studentsState) string {
	shown := filterStudents(st.List, st.Query)
	var b strings.Builder
	fmt.Fprintf(&b, "👥 <b>Students</b> (%d)\n", len(st.List))
	if st.Query != "" {
		fmt.Fprintf(&b, "🔍 “%s” — %d found\n", escape(st.Query), len(shown))
	}
	switch {
	case len(st.List) == 0:
		b.WriteString("\nNo students registered yet.")
	case len(shown) == 0:
		b.WriteString("\nNo students match the search.")
	default:
		b.WriteString("\nTap a student to view, edit or delete.")
		if len(shown) > maxListButtons {
			fmt.Fprintf(&b, "\nShowing the first %d, use 🔍 Search to narrow the list.", maxListButtons)
		}
	}
	return b.String()
}

func studentListKeyboard(st *studentsState) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, s := range filterStudents(st.List, st.Query) {
		if i == maxListButtons {
			break
		}
		label := fsmutil.Truncate(s.Name+" · "+s.StudentID, 48)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbStuView+strconv.FormatInt(s.ID, 10)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add student", cbStuAdd),
		tgbotapi.NewInlineKeyboardButtonData("🔍 Search", cbStuSearch),
	))
	last := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbStuRefresh))
	if st.Query != "" {
		last = append(last, tgbotapi.NewInlineKeyboardButtonData("✖️ Clear search", cbStuClear))
	}
	rows = append(rows, last)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func findStudent(list []models.Student, id int64) (models.Student, bool) {
	for _, s := range list {
		if s.ID == id {
			return s, true
		}
	}
	return models.Student{}, false
}

// studentByID — сначала из загруженного списка, иначе с бэкенда.
func studentByID(ctx context.Context, c *chat.Chat, id int64) (models.Student, bool) {
	if st := studentStates.Get(c.ID); st != nil {
		if s, ok := findStudent(st.List, id); ok {
			return s, true
		}
	}
	s, err := c.API.GetStudent(ctx, id)
	if err != nil {
		c.Fail(ctx, err, "Failed to load student")
		return models.Student{}, false
	}
	return *s, true
}

func renderStudentCard(s models.Student) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 <b>%s</b>\n", escape(s.Name))
	fmt.Fprintf(&b, "Reg ID: %s\n", escape(s.StudentID))
	fmt.Fprintf(&b, "Faculty: %s\n", escape(s.Faculty))
	fmt.Fprintf(&b, "Year: %d\n", s.Year)
	if s.ContactNumber != "" {
		fmt.Fprintf(&b, "Contact: %s\n", escape(s.ContactNumber))
	}
	return strings.TrimRight(b.String(), "\n")
}

func studentCardKeyboard(id int64) tgbotapi.InlineKeyboardMarkup {
	sid := strconv.FormatInt(id, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", cbStuEdit+sid),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbStuDelete+sid),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Attendance report", cbStuReport+sid),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to list", cbStuBack),
		),
	)
}

func handleStudentsCallback(ctx context.Context, c *chat.Chat, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	msgID := 0
	if cb.Message != nil {
		msgID = cb.Message.MessageID
	}
	tg.Answer(c.Bot, cb.ID, "")

	switch {
	case data == cbStuRefresh || data == cbStuBack:
		studentForms.Delete(c.ID)
		OpenStudents(ctx, c)

	case data == cbStuClear:
		if st := studentStates.Get(c.ID); st != nil {
			st.Query = ""
		}
		OpenStudents(ctx, c)

	case data == cbStuSearch:
		st := studentStates.Get(c.ID)
		if st == nil {
			st = &studentsState{}
			studentStates.Set(c.ID, st)
		}
		st.AwaitSearch = true
		c.Say("🔍 Type a name or registration number to search:")

	case data == cbStuAdd:
		startStudentForm(c, 0, models.Student{})

	case strings.HasPrefix(data, cbStuView):
		id, ok := parseID(data, cbStuView)
		if !ok {
			return
		}
		if s, ok := studentByID(ctx, c, id); ok {
			kb := studentCardKeyboard(id)
			c.Edit(msgID, renderStudentCard(s), &kb)
		}

	case strings.HasPrefix(data, cbStuEdit):
		id, ok := parseID(data, cbStuEdit)
		if !ok {
			return
		}
		if s, ok := studentByID(ctx, c, id); ok {
			startStudentForm(c, id, s)
		}

	case strings.HasPrefix(data, cbStuDeleteOK):
		id, ok := parseID(data, cbStuDeleteOK)
		if !ok {
			return
		}
		deleteStudent(ctx, c, msgID, id)

	case strings.HasPrefix(data, cbStuDelete):
		id, ok := parseID(data, cbStuDelete)
		if !ok {
			return
		}
		s, ok := studentByID(ctx, c, id)
		if !ok {
			return
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, delete", cbStuDeleteOK+strconv.FormatInt(id, 10)),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbStuView+strconv.FormatInt(id, 10)),
		))
		c.Edit(msgID, fmt.Sprintf("Delete <b>%s</b> (%s)?\nThis cannot be undone.", escape(s.Name), escape(s.StudentID)), &kb)

	case strings.HasPrefix(data, cbStuReport):
		id, ok := parseID(data, cbStuReport)
		if !ok {
			return
		}
		showStudentReport(ctx, c, msgID, id)

	case data == cbStuSkip || data == cbStuKeep:
		if f := studentForms.Get(c.ID); f != nil {
			if msgID != 0 {
				fsmutil.DisableMarkup(c.Bot, c.ID, msgID)
			}
			if data == cbStuSkip && f.Step == FormContact {
				f.S.ContactNumber = ""
			}
			advanceStudentForm(ctx, c, f)
		}

	case data == cbStuCancel:
		studentForms.Delete(c.ID)
		if msgID != 0 {
			fsmutil.DisableMarkup(c.Bot, c.ID, msgID)
		}
		c.Say("❌ Cancelled")
		OpenStudents(ctx, c)
	}
}

func deleteStudent(ctx context.Context, c *chat.Chat, msgID int, id int64) {
	if !fsmutil.SetPending(c.ID, "students:delete") {
		return
	}
	defer fsmutil.ClearPending(c.ID, "students:delete")
	if msgID != 0 {
		fsmutil.DisableMarkup(c.Bot, c.ID, msgID)
	}
	if err := c.API.DeleteStudent(ctx, id); err != nil {
		c.Fail(ctx, err, "Failed to delete student")
		return
	}
	c.Say("✅ Student deleted successfully")
	resetAttendanceRoster(c.ID)
	OpenStudents(ctx, c)
}

func showStudentReport(ctx context.Context, c *chat.Chat, msgID int, id int64) {
	rep, err := c.API.StudentReport(ctx, id)
	if err != nil {
		c.Fail(ctx, err, "Failed to load student report")
		return
	}
	var b strings.Builder
	name := rep.Student.Name
	if name == "" {
		if s, ok := studentByID(ctx, c, id); ok {
			name = s.Name
		}
	}
	fmt.Fprintf(&b, "📊 <b>%s</b>\n", escape(name))
	fmt.Fprintf(&b, "Attendance: <b>%s</b> (%d of %d sessions)\n", percent(rep.AttendancePercentage), rep.AttendedSessions, rep.TotalSessions)
	if len(rep.AttendanceHistory) == 0 {
		b.WriteString("\nNo sessions recorded yet.")
	} else {
		b.WriteString("\n")
		for i, h := range rep.AttendanceHistory {
			if i == 20 {
				fmt.Fprintf(&b, "… and %d more\n", len(rep.AttendanceHistory)-20)
				break
			}
			fmt.Fprintf(&b, "%s — %s\n", h.Date, presence(h.IsPresent))
		}
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbStuView+strconv.FormatInt(id, 10)),
	))
	c.Edit(msgID, strings.TrimRight(b.String(), "\n"), &kb)
}

func handleStudentSearch(ctx context.Context, c *chat.Chat, st *studentsState, q string) {
	st.AwaitSearch = false
	st.Query = strings.TrimSpace(q)
	if st.List == nil {
		OpenStudents(ctx, c)
		return
	}
	st.MsgID = c.HTML(renderStudentList(st), studentListKeyboard(st))
}

// ---------- форма студента ----------

func startStudentForm(c *chat.Chat, editID int64, s models.Student) {
	f := &studentForm{EditID: editID, Step: FormStudentID, S: s}
	studentForms.Set(c.ID, f)
	title := "➕ <b>New student</b>"
	if editID != 0 {
		title = "✏️ <b>Edit " + escape(s.Name) + "</b>"
	}
	c.HTML(title+"\nSend /cancel to stop.", nil)
	askStudentField(c, f)
}

func fieldPrompt(step FormStep) string {
	switch step {
	case FormStudentID:
		return "Registration number (e.g. TG/2021/001)"
	case FormName:
		return "Full name"
	case FormFaculty:
		return "Faculty"
	case FormYear:
		return "Academic year (1, 2, 3…)"
	case FormContact:
		return "Contact number (optional)"
	}
	return string(step)
}

func currentValue(s models.Student, step FormStep) string {
	switch step {
	case FormStudentID:
		return s.StudentID
	case FormName:
		return s.Name
	case FormFaculty:
		return s.Faculty
	case FormYear:
		if s.Year > 0 {
			return strconv.Itoa(s.Year)
		}
	case FormContact:
		return s.ContactNumber
	}
	return ""
}

func askStudentField(c *chat.Chat, f *studentForm) {
	text := fieldPrompt(f.Step) + ":"
	var rows [][]tgbotapi.InlineKeyboardButton
	if cur := currentValue(f.S, f.Step); f.EditID != 0 && cur != "" {
		text = fmt.Sprintf("%s\nCurrent: <b>%s</b>", text, escape(cur))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Keep current", cbStuKeep)))
	}
	if f.Step == FormContact {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", cbStuSkip)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbStuCancel)))
	c.HTML(text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func handleStudentFormText(ctx context.Context, c *chat.Chat, msg *tgbotapi.Message) {
	f := studentForms.Get(c.ID)
	if f == nil {
		return
	}
	if fsmutil.IsCancelText(msg.Text) {
		studentForms.Delete(c.ID)
		c.Say("❌ Cancelled")
		OpenStudents(ctx, c)
		return
	}
	text := strings.TrimSpace(msg.Text)
	if err := setStudentField(c.Validate, &f.S, f.Step, text); err != nil {
		c.Say("⚠️ " + firstError(err))
		askStudentField(c, f)
		return
	}
	advanceStudentForm(ctx, c, f)
}

// setStudentField проверяет и записывает одно поле формы.
func setStudentField(v *validate.Validator, s *models.Student, step FormStep, text string) error {
	switch step {
	case FormStudentID:
		if err := v.Var("studentId", text, "required"); err != nil {
			return err
		}
		s.StudentID = text
	case FormName:
		if err := v.Var("name", text, "required"); err != nil {
			return err
		}
		s.Name = text
	case FormFaculty:
		if err := v.Var("faculty", text, "required"); err != nil {
			return err
		}
		s.Faculty = text
	case FormYear:
		year, err := strconv.Atoi(text)
		if err != nil {
			return errors.New("year must be a number")
		}
		if err := v.Var("year", year, "gte=1"); err != nil {
			return err
		}
		s.Year = year
	case FormContact:
		s.ContactNumber = text
	}
	return nil
}

func advanceStudentForm(ctx context.Context, c *chat.Chat, f *studentForm) {
	for i, step := range formOrder {
		if step == f.Step && i+1 < len(formOrder) {
			f.Step = formOrder[i+1]
			askStudentField(c, f)
			return
		}
	}
	submitStudentForm(ctx, c, f)
}

func submitStudentForm(ctx context.Context, c *chat.Chat, f *studentForm) {
	if err := c.Validate.Struct(f.S); err != nil {
		c.Say("⚠️ " + firstError(err))
		f.Step = FormStudentID
		askStudentField(c, f)
		return
	}
	if !fsmutil.SetPending(c.ID, "students:save") {
		return
	}
	defer fsmutil.ClearPending(c.ID, "students:save")

	var err error
	if f.EditID == 0 {
		_, err = c.API.CreateStudent(ctx, f.S)
	} else {
		_, err = c.API.UpdateStudent(ctx, f.EditID, f.S)
	}
	if err != nil {
		if c.Fail(ctx, err, "Failed to save student") {
			return
		}
		f.Step = FormStudentID
		askStudentField(c, f)
		return
	}
	studentForms.Delete(c.ID)
	if f.EditID == 0 {
		c.Say("✅ Student added successfully")
	} else {
		c.Say("✅ Student updated successfully")
	}
	resetAttendanceRoster(c.ID)
	OpenStudents(ctx, c)
}

func firstError(err error) string {
	var ve *validate.ValidationError
	if errors.As(err, &ve) && ve.First() != "" {
		return ve.First()
	}
	return err.Error()
}
