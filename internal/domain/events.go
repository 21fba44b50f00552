package domain

// Outbound event types.
const (
	EventViewers    = "viewers"
	EventFrame      = "frame"
	EventChat       = "chat"
	EventBid        = "bid"
	EventPrice      = "price"
	EventLiveStatus = "live_status"
)

type ViewerCountEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type FrameEvent struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type ChatEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type BidEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Amount   int    `json:"amount"`
}

type PriceEvent struct {
	Type    string `json:"type"`
	Current int    `json:"current"`
}

type LiveStatusEvent struct {
	Type   string `json:"type"`
	IsLive bool   `json:"is_live"`
}

func NewViewerCountEvent(count int) ViewerCountEvent {
	return ViewerCountEvent{Type: EventViewers, Count: count}
}

func NewFrameEvent(data string) FrameEvent {
	return FrameEvent{Type: EventFrame, Data: data}
}

func NewChatEvent(username, text string) ChatEvent {
	return ChatEvent{Type: EventChat, Username: username, Text: text}
}

func NewBidEvent(username string, amount int) BidEvent {
	return BidEvent{Type: EventBid, Username: username, Amount: amount}
}

func NewPriceEvent(current int) PriceEvent {
	return PriceEvent{Type: EventPrice, Current: current}
}

func NewLiveStatusEvent(isLive bool) LiveStatusEvent {
	return LiveStatusEvent{Type: EventLiveStatus, IsLive: isLive}
}
