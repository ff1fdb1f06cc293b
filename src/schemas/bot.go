package schemas

// BotMessageRequest represents the body of an inbound text message.
type BotMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// BotReply represents the bot's answer to any inbound event.
type BotReply struct {
	Reply  string `json:"reply"`
	Status string `json:"status"`
}
