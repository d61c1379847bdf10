package bot

// User-facing reply texts. HTML parse mode is used wherever a message
// interpolates user-provided text, which is escaped at the call site.
const (
	msgGreeting = "Hello, <b>%s</b>! I keep track of your todos.\nSend /todo to add one or /get_todos to see your list."

	msgTodoPrompt  = "What should I add to your list?"
	msgTodoCreated = "Added ✅ <i>%s</i>\nDue %s."
	msgEmptyTodo   = "Todo text cannot be empty. Try again."

	msgNoTodos       = "You have no todos yet. Send /todo to add one."
	msgGetTodosUsage = "Usage: /get_todos [page]"
	msgPageSummary   = "Page %d of %d · %d todos"

	msgNoUsers        = "No users yet."
	msgPostUsersUsage = "Usage: /post_users <id> <username>"
	msgUserSaved      = "User %d saved as <b>%s</b>."

	msgUnknownUser  = "We haven't met yet. Send /start to begin."
	msgFallbackText = "I didn't catch that. Send /todo to add a todo or /get_todos to list them."

	msgDoneAck           = "Done ✅"
	msgTodoMissing       = "That todo no longer exists."
	msgUnsupportedAction = "Unsupported action"
	msgGenericError      = "Something went wrong, please try again."
)
