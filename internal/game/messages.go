package game

// Bot reply texts.
const (
	MsgInvite = "Вы пригласили бота \"Своя игра\".\n" +
		"Сделайте бота администратором беседы и воспользуйтесь кнопками ниже, чтобы начать играть.\n" +
		"Кто первый отвечает, тому начисляется 100 очков.\n" +
		"В конце подводится результат."
	MsgWrongAnswer     = "Неверный ответ"
	MsgBotIsNotAdmin   = "Назначьте бота администратором беседы"
	MsgNoQuestions     = "В боте отсутствуют вопросы"
	MsgAlreadyStarted  = "Игра уже началась"
	MsgAlreadyFinished = "Игра уже завершена"
	MsgFinished        = "Игра завершена"
	MsgNoCurrentGame   = "Нет текущей игры"
)

// Message templates; filled with fmt.Sprintf.
const (
	fmtGameStarted     = "Игра началась. Первый вопрос: %s"
	fmtCorrectNext     = "Правильный ответ! %s зачислено %d очков. Следующий вопрос: %s"
	fmtCorrectFinished = "Правильный ответ! %s зачислено %d очков.\nИгра завершена, вопросов не осталось.\nРезультаты:\n%s"
	fmtTimeUpNext      = "Время на ответ вышло. Следующий вопрос: %s"
	fmtTimeUpFinished  = "Время на ответ вышло.\nИгра завершена, вопросов не осталось.\nРезультаты:\n%s"
	fmtResults         = "Результаты текущей игры № %d:\n%s"
	fmtScoreLine       = "Игрок %s: %d очков"
)
