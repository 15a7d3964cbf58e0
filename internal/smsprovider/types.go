package smsprovider

// SendMessageResponse — ответ провайдера на отправку сообщения.
type SendMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}
