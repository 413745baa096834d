package bot

import "github.com/AlexYAT/vedic-astrologer-bot/pkg/telegram"

// Main menu labels. The reply keyboard sends them back as plain text, so
// the dispatcher maps them to commands.
const (
	btnToday       = "🔮 Сегодня"
	btnTomorrow    = "🔮 Завтра"
	btnCheckAction = "❓ Проверить действие"
	btnFavorable   = "📅 Удачный день"
	btnTopics      = "🎯 По теме"
	btnMyData      = "⚙️ Мои данные"

	btnShareContact = "📱 Поделиться номером"
	btnSkipContact  = "Пропустить"
)

// topics for the inline keyboard, in display order.
var topics = []struct {
	Key   string
	Label string
}{
	{"career", "Карьера"},
	{"relationships", "Отношения"},
	{"health", "Здоровье"},
	{"finance", "Финансы"},
	{"spirituality", "Духовность"},
}

const topicCallbackPrefix = "topic_"

func mainMenuKeyboard() *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: btnToday}, {Text: btnTomorrow}},
			{{Text: btnCheckAction}, {Text: btnFavorable}},
			{{Text: btnTopics}, {Text: btnMyData}},
		},
		ResizeKeyboard: true,
	}
}

// contactKeyboard lets the user hand over the phone number Telegram
// already has instead of typing it.
func contactKeyboard() *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: btnShareContact, RequestContact: true}},
			{{Text: btnSkipContact}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func topicsKeyboard() *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         t.Label,
			CallbackData: topicCallbackPrefix + t.Key,
		}})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// topicLabel resolves a topic_<key> callback to its display name, "" when
// the key is unknown.
func topicLabel(callbackData string) string {
	if len(callbackData) <= len(topicCallbackPrefix) {
		return ""
	}
	key := callbackData[len(topicCallbackPrefix):]
	for _, t := range topics {
		if t.Key == key {
			return t.Label
		}
	}
	return ""
}
