package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/attendance"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
)

const (
	cbAttDate   = "att_d:"
	cbAttToggle = "att_t:"
	cbAttAll    = "att_all:"
	cbAttSave   = "att_save"
	cbAttPick   = "att_pick"
)

type attendanceState struct {
	Sheet     *attendance.Sheet
	MsgID     int
	AwaitDate bool
	Notice    string
}

var attendanceStates = fsmutil.NewStates[attendanceState]()

func newSheet(c *chat.Chat) *attendance.Sheet {
	opts := []attendance.Option{attendance.WithLocation(c.Loc)}
	if c.Now != nil {
		opts = append(opts, attendance.WithClock(c.Now))
	}
	return attendance.New(c.API, opts...)
}

// OpenAttendance — выбор даты тренировки.
func OpenAttendance(_ context.Context, c *chat.Chat) {
	st := &attendanceState{Sheet: newSheet(c), AwaitDate: true}
	attendanceStates.Set(c.ID, st)
	st.MsgID = c.HTML("✅ <b>Mark attendance</b>\nPick the practice date or type it as YYYY-MM-DD:",
		datePicker(cbAttDate, c.Today()))
}

// resetAttendanceRoster — состав студентов поменялся, табель перечитает его при следующей дате.
func resetAttendanceRoster(chatID int64) {
	if st := attendanceStates.Get(chatID); st != nil {
		st.Sheet.Reload()
	}
}

func selectAttendanceDate(ctx context.Context, c *chat.Chat, st *attendanceState, date string) {
	st.AwaitDate = false
	st.Notice = ""
	st.MsgID = c.Edit(st.MsgID, "⏳ Loading attendance for "+date+"…", nil)

	err := st.Sheet.SelectDate(ctx, date)
	switch {
	case errors.Is(err, attendance.ErrStale):
		return
	case errors.Is(err, attendance.ErrFutureDate):
		c.Say("⚠️ Future dates are not allowed. Pick today or an earlier date.")
		st.AwaitDate = true
		st.MsgID = c.HTML("Pick the practice date:", datePicker(cbAttDate, c.Today()))
		return
	case errors.Is(err, attendance.ErrBusy):
		c.Say("⏳ Saving is in progress, please wait.")
		return
	case err != nil:
		if c.Fail(ctx, err, "Failed to load students") {
			return
		}
		st.AwaitDate = true
		st.MsgID = c.HTML("Pick the practice date:", datePicker(cbAttDate, c.Today()))
		return
	}
	st.Notice = "Loaded attendance for " + date
	renderSheet(c, st)
}

func renderSheet(c *chat.Chat, st *attendanceState) {
	text, kb := sheetMessage(st.Sheet.Snapshot(), st.Notice)
	st.MsgID = c.Edit(st.MsgID, text, &kb)
}

// sheetMessage — текст и клавиатура табеля. Кнопок имён не больше maxListButtons.
func sheetMessage(v attendance.View, notice string) (string, tgbotapi.InlineKeyboardMarkup) {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>%s</b>", v.Date)
	if v.Existing {
		b.WriteString(" · recorded session\n")
	} else {
		b.WriteString(" · new session\n")
	}
	switch v.State {
	case attendance.Saving:
		b.WriteString("💾 Saving…\n")
	case attendance.Saved:
		b.WriteString("✅ Attendance saved successfully\n")
	case attendance.Failed:
		b.WriteString("⚠️ Last save failed, try again\n")
	}
	if notice != "" && v.State == attendance.Editing {
		b.WriteString(notice + "\n")
	}
	if len(v.Rows) == 0 {
		b.WriteString("\nNo students registered yet.")
	} else {
		fmt.Fprintf(&b, "Present: <b>%d/%d</b>\nTap a name to toggle.", v.Present, len(v.Rows))
		if len(v.Rows) > maxListButtons {
			fmt.Fprintf(&b, "\nOnly the first %d students are listed; use All present / All absent for the other %d.",
				maxListButtons, len(v.Rows)-maxListButtons)
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, r := range v.Rows {
		if i == maxListButtons {
			break
		}
		mark := "⬜"
		if r.Present {
			mark = "✅"
		}
		label := fsmutil.Truncate(mark+" "+r.Student.Name+" · "+r.Student.StudentID, 48)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbAttToggle+strconv.FormatInt(r.Student.ID, 10)),
		))
	}
	if len(v.Rows) > 0 {
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("All present", cbAttAll+"1"),
				tgbotapi.NewInlineKeyboardButtonData("All absent", cbAttAll+"0"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("💾 Save", cbAttSave),
				tgbotapi.NewInlineKeyboardButtonData("📅 Change date", cbAttPick),
			),
		)
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Change date", cbAttPick)))
	}
	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func handleAttendanceCallback(ctx context.Context, c *chat.Chat, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	st := attendanceStates.Get(c.ID)
	if st == nil {
		// старая клавиатура после перезапуска или fsm_gc
		tg.Answer(c.Bot, cb.ID, "This screen has expired")
		OpenAttendance(ctx, c)
		return
	}
	if cb.Message != nil {
		st.MsgID = cb.Message.MessageID
	}

	switch {
	case strings.HasPrefix(data, cbAttDate):
		tg.Answer(c.Bot, cb.ID, "")
		date, ok := parseDate(strings.TrimPrefix(data, cbAttDate), c.Loc)
		if ok {
			selectAttendanceDate(ctx, c, st, date)
		}

	case strings.HasPrefix(data, cbAttToggle):
		id, ok := parseID(data, cbAttToggle)
		if !ok {
			tg.Answer(c.Bot, cb.ID, "")
			return
		}
		if _, err := st.Sheet.Toggle(id); err != nil {
			tg.Answer(c.Bot, cb.ID, "Pick a date first")
			return
		}
		tg.Answer(c.Bot, cb.ID, "")
		st.Notice = ""
		renderSheet(c, st)

	case strings.HasPrefix(data, cbAttAll):
		tg.Answer(c.Bot, cb.ID, "")
		if err := st.Sheet.SetAll(strings.TrimPrefix(data, cbAttAll) == "1"); err == nil {
			st.Notice = ""
			renderSheet(c, st)
		}

	case data == cbAttSave:
		saveAttendance(ctx, c, st, cb.ID)

	case data == cbAttPick:
		tg.Answer(c.Bot, cb.ID, "")
		st.AwaitDate = true
		kb := datePicker(cbAttDate, c.Today())
		st.MsgID = c.Edit(st.MsgID, "Pick the practice date or type it as YYYY-MM-DD:", &kb)

	default:
		tg.Answer(c.Bot, cb.ID, "")
	}
}

func saveAttendance(ctx context.Context, c *chat.Chat, st *attendanceState, callbackID string) {
	if !fsmutil.SetPending(c.ID, "attendance:save") {
		tg.Answer(c.Bot, callbackID, "Saving is already in progress")
		return
	}
	defer fsmutil.ClearPending(c.ID, "attendance:save")
	tg.Answer(c.Bot, callbackID, "Saving…")

	_ = tg.EditHTML(c.Bot, c.ID, st.MsgID, "💾 Saving attendance for "+st.Sheet.Snapshot().Date+"…", nil)

	_, err := st.Sheet.Save(ctx)
	switch {
	case err == nil:
	case errors.Is(err, attendance.ErrBusy):
		return
	case errors.Is(err, attendance.ErrNoSessionID):
		c.Fail(ctx, err, "Failed to save attendance: the server did not create a practice session for this date.")
	default:
		if c.Fail(ctx, err, "Failed to save attendance") {
			return
		}
	}
	st.Notice = ""
	renderSheet(c, st)
}
