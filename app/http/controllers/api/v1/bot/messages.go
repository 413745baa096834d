package bot

// birthTimeUnknownValue is stored in birth_time when the user does not
// know their birth time.
const birthTimeUnknownValue = "неизвестно"

// User-facing texts. The bot speaks Russian.
const (
	msgNeedData = "Для получения прогноза необходимо заполнить данные рождения. " +
		"Отправь /start или /setdata для ввода."

	msgAskBirthDate = "Введи дату рождения в формате ДД.ММ.ГГГГ (например, 15.03.1990):"

	msgBadBirthDate = "Неверный формат. Введи дату в формате ДД.ММ.ГГГГ (например, 15.03.1990):"

	msgAskBirthTime = "Отлично! Теперь введи время рождения в формате ЧЧ:ММ (например, 14:30).\n" +
		"Если время неизвестно, напиши «не знаю»."

	msgBadBirthTime = "Неверный формат. Введи время в формате ЧЧ:ММ (например, 14:30) " +
		"или напиши «не знаю», если время неизвестно:"

	msgTimeUnknownOK = "Понятно, время рождения неизвестно. Теперь введи место рождения (город, страна):"

	msgAskBirthPlace = "Спасибо! Теперь введи место рождения (город, страна):"

	msgBadBirthPlace = "Введи название города и страны:"

	msgDataSaved = "Данные успешно сохранены! Теперь ты можешь получать персонализированные прогнозы. " +
		"Выбери команду из меню:"

	msgPickFromMenu = "Выбери команду из меню:"

	msgPickTopic = "Выбери тему для персонализированного прогноза:"

	msgAskAction = "Напиши, какое действие хочешь проверить.\n" +
		"Например: подписать договор, поговорить с руководителем, купить билет."

	msgBadAction = "Пожалуйста, укажите конкретное действие. " +
		"Например: подписать договор, поговорить с руководителем, купить билет."

	msgQueued = "Запрос принят, готовлю ответ..."

	msgContactUnchanged = "Контактные данные не изменены."

	msgContactUpdated = "Контактные данные обновлены."

	msgBadEmail = "Неверный формат email. Введите корректный адрес или «пропустить»."

	msgSomethingWrong = "К сожалению, произошла ошибка. Попробуй позже."
)
