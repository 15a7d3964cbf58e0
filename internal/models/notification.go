package models

// EmailMessage — сообщение очереди notifications.email. Тема и текст
// рендерятся на стороне отправителя в очередь, воркер только доставляет.
type EmailMessage struct {
	ID         string   `json:"id"` // UUID сообщения для трассировки в логах воркера
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// SMSMessage — сообщение очереди notifications.sms. Текст SMS воркер
// рендерит сам по данным подписчика из базы.
type SMSMessage struct {
	ID           string `json:"id"`
	SubscriberID int    `json:"subscriber_id"`
}
