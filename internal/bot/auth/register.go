package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/chat"
	"github.com/rusl-cricket/attendance-bot/internal/bot/shared/fsmutil"
	"github.com/rusl-cricket/attendance-bot/internal/models"
	"github.com/rusl-cricket/attendance-bot/internal/tg"
	"github.com/rusl-cricket/attendance-bot/internal/validate"
)

var errBadLoginResponse = errors.New("auth: login response without token or role")

type RegisterStep string

const (
	StepRegEmail     RegisterStep = "reg_email"
	StepRegPassword  RegisterStep = "reg_password"
	StepRegStudentID RegisterStep = "reg_student_id"
	StepRegName      RegisterStep = "reg_name"
	StepRegFaculty   RegisterStep = "reg_faculty"
	StepRegYear      RegisterStep = "reg_year"
	StepRegContact   RegisterStep = "reg_contact"
)

type registerState struct {
	Step RegisterStep
	Req  models.RegisterRequest
}

var registerStates = fsmutil.NewStates[registerState]()

func cancelRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbCancel))
}

// StartRegister — самостоятельная регистрация студента.
func StartRegister(_ context.Context, c *chat.Chat) {
	loginStates.Delete(c.ID)
	registerStates.Set(c.ID, &registerState{Step: StepRegEmail})
	c.HTML("📝 <b>Student registration</b>\nEnter your university email (must end with "+
		escape(c.Validate.Domain())+"):", tgbotapi.NewInlineKeyboardMarkup(cancelRow()))
}

func handleRegisterText(ctx context.Context, c *chat.Chat, st *registerState, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	var err error
	switch st.Step {
	case StepRegEmail:
		if err = c.Validate.Var("email", text, "required,email,institutional_email"); err == nil {
			st.Req.Email = text
			st.Step = StepRegPassword
			c.Say("Choose a password (at least 6 characters, the message will be deleted):")
		}
	case StepRegPassword:
		_ = tg.Delete(c.Bot, c.ID, msg.MessageID)
		if err = c.Validate.Var("password", text, "required,min=6"); err == nil {
			st.Req.Password = text
			st.Step = StepRegStudentID
			c.Say("Enter your registration number (e.g. TG/2021/001):")
		}
	case StepRegStudentID:
		if err = c.Validate.Var("studentId", text, "required"); err == nil {
			st.Req.StudentID = text
			st.Step = StepRegName
			c.Say("Enter your full name:")
		}
	case StepRegName:
		if err = c.Validate.Var("name", text, "required"); err == nil {
			st.Req.Name = text
			st.Step = StepRegFaculty
			c.Say("Enter your faculty:")
		}
	case StepRegFaculty:
		if err = c.Validate.Var("faculty", text, "required"); err == nil {
			st.Req.Faculty = text
			st.Step = StepRegYear
			c.Say("Enter your academic year (1, 2, 3…):")
		}
	case StepRegYear:
		year, convErr := strconv.Atoi(text)
		if convErr != nil {
			c.Say("⚠️ year must be a number\nEnter your academic year:")
			return
		}
		if err = c.Validate.Var("year", year, "gte=1"); err == nil {
			st.Req.Year = year
			st.Step = StepRegContact
			kb := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", cbSkip)),
				cancelRow(),
			)
			c.HTML("Enter your contact number (optional):", kb)
		}
	case StepRegContact:
		st.Req.ContactNumber = text
		submitRegister(ctx, c, st)
		return
	}
	if err != nil {
		c.Say("⚠️ " + firstError(err))
	}
}

// submitRegister — вся форма проверяется до сети, только потом запрос.
func submitRegister(ctx context.Context, c *chat.Chat, st *registerState) {
	if err := c.Validate.Struct(st.Req); err != nil {
		c.Say("⚠️ " + firstError(err))
		registerStates.Set(c.ID, &registerState{Step: StepRegEmail})
		c.Say("Let's start again. Enter your university email:")
		return
	}
	if !fsmutil.SetPending(c.ID, "auth:register") {
		return
	}
	defer fsmutil.ClearPending(c.ID, "auth:register")

	_, err := c.API.Register(ctx, st.Req)
	if err != nil {
		c.Fail(ctx, err, "Registration failed. Please try again.")
		registerStates.Set(c.ID, &registerState{Step: StepRegEmail})
		c.Say("Enter your university email:")
		return
	}
	registerStates.Delete(c.ID)
	StartLogin(ctx, c, "✅ Registration successful! Please log in.")
}

func firstError(err error) string {
	var ve *validate.ValidationError
	if errors.As(err, &ve) && ve.First() != "" {
		return ve.First()
	}
	return err.Error()
}
