// Package bot is the Telegram webhook surface: command dispatch, the
// birth-data survey and forecast enqueueing.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/request"
	"github.com/AlexYAT/vedic-astrologer-bot/app/models/user"
	"github.com/AlexYAT/vedic-astrologer-bot/app/repositories"
	"github.com/AlexYAT/vedic-astrologer-bot/app/requests"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/queue"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/telegram"
)

// WebhookController handles Telegram update deliveries.
type WebhookController struct {
	bot          *telegram.Client
	queueService *queue.QueueService
	userRepo     *repositories.UserRepository
	requestRepo  *repositories.RequestRepository
	states       *stateStore
}

// NewWebhookController wires the controller over the global services.
func NewWebhookController() *WebhookController {
	return &WebhookController{
		bot:          telegram.Bot(),
		queueService: queue.GetQueueService(),
		userRepo:     repositories.NewUserRepository(),
		requestRepo:  repositories.NewRequestRepository(),
		states:       newStateStore(),
	}
}

// Handle is the webhook endpoint. Telegram retries non-200 responses, so
// processing errors are logged and acknowledged anyway.
func (wc *WebhookController) Handle(c *gin.Context) {
	secret := config.GetString("telegram.webhook_secret")
	if secret != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != secret {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		logger.ErrorString("Webhook", "Bind", err.Error())
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	switch {
	case update.CallbackQuery != nil:
		wc.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		wc.handleMessage(ctx, update.Message)
	}

	c.Status(http.StatusOK)
}

func (wc *WebhookController) handleMessage(ctx context.Context, msg *telegram.Message) {
	externalID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	usr, err := wc.userRepo.GetOrCreate(ctx, externalID)
	if err != nil {
		logger.ErrorString("Webhook", "GetOrCreate", err.Error())
		wc.send(ctx, chatID, msgSomethingWrong, nil)
		return
	}

	// Commands and menu buttons break out of any running dialog.
	if command := wc.resolveCommand(text); command != "" {
		wc.states.Clear(externalID)
		wc.dispatchCommand(ctx, command, msg, usr)
		return
	}

	if state := wc.states.Get(externalID); state != nil {
		wc.continueDialog(ctx, msg, usr, state)
		return
	}

	wc.send(ctx, chatID, msgPickFromMenu, mainMenuKeyboard())
}

// resolveCommand maps slash commands and menu button labels to one
// command name.
func (wc *WebhookController) resolveCommand(text string) string {
	switch text {
	case btnToday:
		return "today"
	case btnTomorrow:
		return "tomorrow"
	case btnCheckAction:
		return "check_action"
	case btnFavorable:
		return "favorable"
	case btnTopics:
		return "topics"
	case btnMyData:
		return "mydata"
	}

	if !strings.HasPrefix(text, "/") {
		return ""
	}
	command := strings.TrimPrefix(text, "/")
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}
	switch command {
	case "start", "setdata", "menu", "today", "tomorrow", "favorable",
		"topics", "mydata", "contact", "admin", "cancel":
		return command
	}
	return ""
}

func (wc *WebhookController) dispatchCommand(ctx context.Context, command string, msg *telegram.Message, usr *user.User) {
	chatID := msg.Chat.ID
	externalID := msg.From.ID

	switch command {
	case "start":
		wc.handleStart(ctx, msg, usr)
	case "setdata":
		wc.states.Set(externalID, &dialogState{Step: stepBirthDate})
		wc.send(ctx, chatID, "Сейчас обновим твои данные. "+msgAskBirthDate, nil)
	case "menu", "cancel":
		wc.send(ctx, chatID, msgPickFromMenu, mainMenuKeyboard())
	case "today":
		wc.enqueueForecast(ctx, msg, usr, request.TypeToday, nil,
			"Сделай персонализированный прогноз на сегодняшний день для этого человека.")
	case "tomorrow":
		wc.enqueueForecast(ctx, msg, usr, request.TypeTomorrow, nil,
			"Сделай персонализированный прогноз на завтрашний день для этого человека.")
	case "favorable":
		wc.enqueueForecast(ctx, msg, usr, request.TypeFavorable, nil,
			"Рекомендуй ближайшие благоприятные дни для важных начинаний с учётом его гороскопа.")
	case "topics":
		if !usr.HasFullData() {
			wc.send(ctx, chatID, msgNeedData, nil)
			return
		}
		wc.send(ctx, chatID, msgPickTopic, topicsKeyboard())
	case "check_action":
		if !usr.HasFullData() {
			wc.send(ctx, chatID, msgNeedData, nil)
			return
		}
		wc.states.Set(externalID, &dialogState{Step: stepAction})
		wc.send(ctx, chatID, msgAskAction, nil)
	case "mydata":
		wc.handleMyData(ctx, chatID, usr)
	case "contact":
		wc.handleContact(ctx, chatID, externalID, usr)
	case "admin":
		wc.handleAdmin(ctx, chatID, externalID)
	}
}

func (wc *WebhookController) handleStart(ctx context.Context, msg *telegram.Message, usr *user.User) {
	chatID := msg.Chat.ID
	name := displayName(msg.From)

	if usr.HasFullData() {
		wc.send(ctx, chatID, fmt.Sprintf(
			"Привет, %s! Рад снова тебя видеть. Твои данные уже сохранены. "+
				"Выбери команду из меню ниже:", name), mainMenuKeyboard())
		return
	}

	wc.states.Set(msg.From.ID, &dialogState{Step: stepBirthDate})
	wc.send(ctx, chatID, fmt.Sprintf(
		"Привет, %s! Я — Ведический астролог, твой персональный советник по Джйотишу.\n\n"+
			"Для персонализированных прогнозов мне нужны твои данные рождения.\n%s",
		name, msgAskBirthDate), nil)
}

// continueDialog advances the active dialog with the user's reply.
func (wc *WebhookController) continueDialog(ctx context.Context, msg *telegram.Message, usr *user.User, state *dialogState) {
	chatID := msg.Chat.ID
	externalID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	switch state.Step {
	case stepBirthDate:
		if !requests.ValidateBirthDate(text) {
			wc.send(ctx, chatID, msgBadBirthDate, nil)
			return
		}
		state.BirthDate = text
		state.Step = stepBirthTime
		wc.states.Set(externalID, state)
		wc.send(ctx, chatID, msgAskBirthTime, nil)

	case stepBirthTime:
		if requests.IsBirthTimeUnknown(text) {
			// The marker keeps the record complete for forecasts; the
			// prompt renders it as-is for the assistant.
			unknown := birthTimeUnknownValue
			state.BirthTime = &unknown
			state.Step = stepBirthPlace
			wc.states.Set(externalID, state)
			wc.send(ctx, chatID, msgTimeUnknownOK, nil)
			return
		}
		if !requests.ValidateBirthTime(text) {
			wc.send(ctx, chatID, msgBadBirthTime, nil)
			return
		}
		state.BirthTime = &text
		state.Step = stepBirthPlace
		wc.states.Set(externalID, state)
		wc.send(ctx, chatID, msgAskBirthPlace, nil)

	case stepBirthPlace:
		if text == "" {
			wc.send(ctx, chatID, msgBadBirthPlace, nil)
			return
		}
		wc.finishSurvey(ctx, chatID, externalID, usr, state, text)

	case stepContact:
		if msg.Contact != nil {
			wc.saveSharedContact(ctx, chatID, externalID, msg.Contact)
			return
		}
		wc.handleContactReply(ctx, chatID, externalID, text)

	case stepAction:
		wc.handleActionReply(ctx, msg, usr, text)
	}
}

func (wc *WebhookController) finishSurvey(ctx context.Context, chatID, externalID int64, usr *user.User, state *dialogState, place string) {
	payload := &requests.BirthDataRequest{
		BirthDate:  state.BirthDate,
		BirthPlace: place,
	}
	if state.BirthTime != nil {
		payload.BirthTime = *state.BirthTime
	}
	if err := requests.ValidateBirthData(payload); err != nil {
		logger.WarnString("Webhook", "BirthData", err.Error())
		wc.states.Clear(externalID)
		wc.send(ctx, chatID, msgSomethingWrong, nil)
		return
	}

	err := wc.userRepo.UpdateBirthData(ctx, externalID, &state.BirthDate, state.BirthTime, &place)
	if err != nil {
		logger.ErrorString("Webhook", "SaveBirthData", err.Error())
		wc.send(ctx, chatID, msgSomethingWrong, nil)
		return
	}
	wc.states.Clear(externalID)

	wc.requestRepo.LogUserRequest(ctx, usr.ID, request.TypeSetData, nil, true, 0)
	wc.send(ctx, chatID, msgDataSaved, mainMenuKeyboard())
}

func (wc *WebhookController) handleActionReply(ctx context.Context, msg *telegram.Message, usr *user.User, text string) {
	chatID := msg.Chat.ID

	if !validateAction(text) {
		wc.send(ctx, chatID, msgBadAction, nil)
		return
	}

	wc.states.Clear(msg.From.ID)
	prompt := fmt.Sprintf(
		"Пользователь хочет проверить действие: «%s». "+
			"Оцени, благоприятно ли сейчас это действие с точки зрения его гороскопа, и дай рекомендацию.", text)
	wc.enqueueForecast(ctx, msg, usr, request.TypeCheckAction, &text, prompt)
}

func (wc *WebhookController) handleMyData(ctx context.Context, chatID int64, usr *user.User) {
	text := "Твои данные:\n" +
		"Дата рождения: " + orUnset(usr.BirthDate) + "\n" +
		"Время рождения: " + orUnset(usr.BirthTime) + "\n" +
		"Место рождения: " + orUnset(usr.BirthPlace) + "\n\n" +
		"Изменить данные: /setdata"
	wc.send(ctx, chatID, text, nil)
}

func (wc *WebhookController) handleContact(ctx context.Context, chatID, externalID int64, usr *user.User) {
	text := "Текущие контактные данные:\n" +
		"Телефон: " + orUnset(usr.Phone) + "\n" +
		"Email: " + orUnset(usr.Email) + "\n\n" +
		"Отправь сообщение в формате:\n" +
		"Телефон: +7...\n" +
		"Email: example@mail.com\n\n" +
		"Можно указать только один из параметров или «пропустить»."
	wc.states.Set(externalID, &dialogState{Step: stepContact})
	wc.send(ctx, chatID, text, contactKeyboard())
}

// saveSharedContact stores the phone number from a Telegram contact share.
func (wc *WebhookController) saveSharedContact(ctx context.Context, chatID, externalID int64, contact *telegram.Contact) {
	wc.states.Clear(externalID)

	phone := strings.TrimSpace(contact.PhoneNumber)
	if phone == "" {
		wc.send(ctx, chatID, msgContactUnchanged, mainMenuKeyboard())
		return
	}

	if err := wc.userRepo.UpdateContact(ctx, externalID, &phone, nil); err != nil {
		logger.ErrorString("Webhook", "UpdateContact", err.Error())
		wc.send(ctx, chatID, msgSomethingWrong, mainMenuKeyboard())
		return
	}
	wc.send(ctx, chatID, msgContactUpdated, mainMenuKeyboard())
}

func (wc *WebhookController) handleContactReply(ctx context.Context, chatID, externalID int64, text string) {
	wc.states.Clear(externalID)
	lowered := strings.ToLower(text)

	if lowered == "пропустить" || lowered == "skip" || lowered == "-" {
		wc.send(ctx, chatID, msgContactUnchanged, mainMenuKeyboard())
		return
	}

	var phone, email *string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "телефон:"):
			if v := strings.TrimSpace(line[len("телефон:"):]); v != "" {
				phone = &v
			}
		case strings.HasPrefix(lower, "email:"):
			v := strings.TrimSpace(line[len("email:"):])
			if v == "" {
				continue
			}
			if !requests.ValidateEmail(v) {
				wc.states.Set(externalID, &dialogState{Step: stepContact})
				wc.send(ctx, chatID, msgBadEmail, nil)
				return
			}
			email = &v
		}
	}

	if phone == nil && email == nil {
		// A single bare value: an address when it has an @, a phone
		// otherwise.
		if strings.Contains(text, "@") {
			if !requests.ValidateEmail(text) {
				wc.states.Set(externalID, &dialogState{Step: stepContact})
				wc.send(ctx, chatID, msgBadEmail, nil)
				return
			}
			email = &text
		} else if text != "" {
			phone = &text
		}
	}

	if phone == nil && email == nil {
		wc.send(ctx, chatID, msgContactUnchanged, mainMenuKeyboard())
		return
	}

	if err := wc.userRepo.UpdateContact(ctx, externalID, phone, email); err != nil {
		logger.ErrorString("Webhook", "UpdateContact", err.Error())
		wc.send(ctx, chatID, msgSomethingWrong, mainMenuKeyboard())
		return
	}
	wc.send(ctx, chatID, msgContactUpdated, mainMenuKeyboard())
}

func (wc *WebhookController) handleAdmin(ctx context.Context, chatID, externalID int64) {
	if !isAdmin(externalID) {
		wc.send(ctx, chatID, msgPickFromMenu, mainMenuKeyboard())
		return
	}

	stats, err := wc.requestRepo.StatsSince(ctx, time.Now().AddDate(0, 0, -1))
	if err != nil {
		logger.ErrorString("Webhook", "AdminStats", err.Error())
		wc.send(ctx, chatID, msgSomethingWrong, nil)
		return
	}
	snapshot := wc.queueService.Metrics().GetSnapshot()

	wc.send(ctx, chatID, adminStatsText(stats, snapshot), nil)
}

// adminStatsText renders the /admin reply. The mean response time is a
// float aggregate; sub-millisecond precision is noise here.
func adminStatsText(stats *repositories.Stats, snapshot queue.Snapshot) string {
	return fmt.Sprintf(
		"Статистика за 24 часа:\n"+
			"Запросов: %d\n"+
			"Неудачных: %d\n"+
			"Среднее время ответа: %.0f мс\n\n"+
			"Очередь:\n"+
			"Всего задач: %d\n"+
			"Ошибок: %d\n"+
			"Среднее ожидание: %d мс",
		stats.Total, stats.Failed, stats.AvgResponseTimeMs,
		snapshot.TotalTasks, snapshot.FailedTasks, snapshot.AvgWaitTimeMs)
}

func (wc *WebhookController) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := wc.bot.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		logger.WarnString("Webhook", "AnswerCallback", err.Error())
	}
	if cb.Message == nil || !strings.HasPrefix(cb.Data, topicCallbackPrefix) {
		return
	}

	chatID := cb.Message.Chat.ID
	externalID := cb.From.ID

	label := topicLabel(cb.Data)
	if label == "" {
		return
	}

	// Collapse the keyboard so a second press cannot enqueue a duplicate.
	if err := wc.bot.EditMessageText(ctx, telegram.EditMessageTextRequest{
		ChatID:    chatID,
		MessageID: cb.Message.MessageID,
		Text:      "Тема: " + label,
	}); err != nil {
		logger.WarnString("Webhook", "EditMessage", err.Error())
	}

	usr, err := wc.userRepo.GetOrCreate(ctx, externalID)
	if err != nil {
		logger.ErrorString("Webhook", "GetOrCreate", err.Error())
		wc.send(ctx, chatID, msgSomethingWrong, nil)
		return
	}
	if !usr.HasFullData() {
		wc.send(ctx, chatID, msgNeedData, nil)
		return
	}

	prompt := fmt.Sprintf("Дай персонализированный прогноз по теме «%s» для этого человека.", label)
	topicText := cb.Data
	wc.enqueue(ctx, chatID, usr, request.TypeTopic, &topicText, prompt)
}

// enqueueForecast guards on full birth data and hands the prompt to the
// queue.
func (wc *WebhookController) enqueueForecast(ctx context.Context, msg *telegram.Message, usr *user.User, reqType request.Type, text *string, instruction string) {
	if !usr.HasFullData() {
		wc.send(ctx, msg.Chat.ID, msgNeedData, nil)
		return
	}
	wc.enqueue(ctx, msg.Chat.ID, usr, reqType, text, instruction)
}

func (wc *WebhookController) enqueue(ctx context.Context, chatID int64, usr *user.User, reqType request.Type, text *string, instruction string) {
	prompt := fmt.Sprintf("Данные пользователя:\n%s\n\n%s", userDataForPrompt(usr), instruction)

	task := &queue.ForecastTask{
		ID:         uuid.New().String(),
		ChatID:     chatID,
		ExternalID: usr.ExternalID,
		Type:       reqType,
		Prompt:     prompt,
		Text:       text,
		Status:     queue.TaskPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := wc.queueService.PushTask(ctx, task); err != nil {
		logger.ErrorString("Webhook", "PushTask", err.Error())
		wc.requestRepo.LogUserRequest(ctx, usr.ID, reqType, text, false, 0)
		wc.send(ctx, chatID, msgSomethingWrong, nil)
		return
	}

	wc.send(ctx, chatID, msgQueued, nil)
}

func (wc *WebhookController) send(ctx context.Context, chatID int64, text string, markup interface{}) {
	err := wc.bot.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:      chatID,
		Text:        telegram.FormatAssistantHTML(text),
		ReplyMarkup: markup,
	})
	if err != nil {
		logger.ErrorString("Webhook", "Send", err.Error())
	}
}

// userDataForPrompt renders the stored birth data for the assistant.
func userDataForPrompt(usr *user.User) string {
	return "Дата рождения: " + orUnset(usr.BirthDate) + "\n" +
		"Время рождения: " + orUnset(usr.BirthTime) + "\n" +
		"Место рождения: " + orUnset(usr.BirthPlace)
}

func orUnset(v *string) string {
	if v == nil || *v == "" {
		return "не указано"
	}
	return *v
}

func displayName(from *telegram.User) string {
	first := strings.TrimSpace(from.FirstName)
	last := strings.TrimSpace(from.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case from.Username != "":
		return "@" + from.Username
	}
	return "друг"
}

func isAdmin(externalID int64) bool {
	for _, id := range strings.Split(config.GetString("telegram.admin_ids"), ",") {
		id = strings.TrimSpace(id)
		if id != "" && cast.ToInt64(id) == externalID {
			return true
		}
	}
	return false
}
