package dialog

import (
	"fmt"
	"time"

	"remindd/internal/domain"
	"remindd/internal/transport"
)

const (
	msgDateNotRecognized  = "дата/время показа напоминания не распознаны или отсутствуют в тексте."
	msgScheduleFailed     = "Ошибка добавления напоминания"
	msgNoActiveReminders  = "Нет активных напоминаний!!!"
	msgNothingToCancel    = "Нет напоминаний для отмены"
	msgAllCancelled       = "Напоминания отменены!!!"
	msgFarewell           = "До новых встреч"
	msgStaleControl       = "Ошибка обработки события от кнопки😕. Пожалуйста отправьте команду /start для новой интеракции."
	msgReceiverUnselected = "<b>Получатель не выбран</b>!!!"

	cardTimeLayout = "15:04:05 MST 02-01-2006"
)

func welcomeText(firstName string, activeCount int) string {
	return fmt.Sprintf(
		"Привет, %s!!!"+
			"\n----------------------------------------------------"+
			"\nЯ, бот управления напоминаниями"+
			"\nДля изменения получателя напоминаний нажмите на кнопку <b>Выбрать получателя</b>."+
			"\nДля прекращения работы бота в любой момент наберите /stop"+
			"\n----------------------------------------------------"+
			"\nАктивные задания:%d",
		firstName, activeCount)
}

func receiverText(receiverID *int64) string {
	if receiverID == nil {
		return msgReceiverUnselected
	}
	return fmt.Sprintf("Отправка сообщений осуществляется в чат:%d.", *receiverID)
}

func receiverSelectedText(receiverID int64) string {
	return fmt.Sprintf("Выбран получатель с id:%d", receiverID)
}

func addPromptText() string {
	return "<b>Введите текст напоминания.</b>" +
		"\n\nДля указания даты Вы можете использовать как точное указание даты и времени так и текстовые " +
		"обозначения сегодня, завтра, через час" +
		"\nНапример: <i>Завтра в 18:00 MSK необходимо запустить выполнение задачи по ТТ2233445566</i>"
}

func reminderCardText(reminder *domain.Reminder, loc *time.Location) string {
	return fmt.Sprintf(
		"⏰ Напоминание: <b>#%s</b>"+
			"\nЗапуск в: <b>%s</b>"+
			"\n---------------------------------------------------------------------------"+
			"\n<pre>%s</pre>",
		reminder.Name,
		reminder.FireAt.In(loc).Format(cardTimeLayout),
		reminder.Text)
}

func cancelAllConfirmText(count int) string {
	return fmt.Sprintf("Отменить все Ваши напоминания (%d)?", count)
}

func strikeThrough(text string) string {
	return fmt.Sprintf("<s>%s</s>", text)
}

func menuControls() [][]transport.Control {
	return [][]transport.Control{
		{{Label: "⏰ Добавить напоминание", Data: domain.Control{Action: domain.ActionAddReminder}.Encode()}},
		{{Label: "🔍 Показать мои напоминания", Data: domain.Control{Action: domain.ActionShow}.Encode()}},
		{{Label: "Отменить все мои напоминания", Data: domain.Control{Action: domain.ActionCancelAll}.Encode()}},
	}
}

func backControls() [][]transport.Control {
	return [][]transport.Control{
		{{Label: "Назад", Data: domain.Control{Action: domain.ActionBack}.Encode()}},
	}
}

func confirmControls() [][]transport.Control {
	return [][]transport.Control{{
		{Label: "Да", Data: domain.Control{Action: domain.ActionConfirm}.Encode()},
		{Label: "Нет", Data: domain.Control{Action: domain.ActionDecline}.Encode()},
	}}
}

func cardControls(jobName string) [][]transport.Control {
	return [][]transport.Control{
		{{Label: "Отменить", Data: domain.Control{Action: domain.ActionCancelJob, JobName: jobName}.Encode()}},
	}
}
