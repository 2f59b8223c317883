package constant

// Sender labels stored with every message.
const (
	SenderSystem  = "System"
	SenderVisitor = "User"
)

// Inbound websocket actions.
const (
	ActionSendMessage  = "send_message"
	ActionJoinRoom     = "join_room"
	ActionLeaveRoom    = "leave_room"
	ActionRefreshRooms = "refresh_rooms"
	ActionPing         = "ping"
)

// Outbound websocket event types.
const (
	EventWelcome        = "welcome"
	EventReceiveMessage = "receive_message"
	EventLoadRooms      = "load_rooms"
	EventLoadMessages   = "load_messages"
	EventUpdateRoomList = "update_room_list"
	EventError          = "error"
)

const WelcomeMessage = "You are connected. An agent will be with you shortly."
