package dispatch

const (
	msgWelcomeFormat = "👋 Hi, %s!\n\n" +
		"I keep track of your tasks. Here is what I can do:\n" +
		"📝 create new tasks\n" +
		"📋 show your task list\n" +
		"❌ delete tasks\n" +
		"✅ mark tasks as done\n\n" +
		"Use /help to see all commands."

	msgHelp = "📚 Available commands:\n\n" +
		"/start - start working with the bot\n" +
		"/new - create a new task\n" +
		"/tasks - show your tasks\n" +
		"/delete - delete a task\n" +
		"/complete - mark a task as done\n" +
		"/cancel - abort task creation\n" +
		"/help - show this message\n\n" +
		"To create a task:\n" +
		"1. Send /new\n" +
		"2. Enter the task title\n" +
		"3. Enter a description (or /skip to leave it empty)"

	msgNotUnderstood      = "🤔 Sorry, I did not understand that. Send /help to see what I can do."
	msgNoDialogue         = "No task is being created right now, so that message was not saved. Send /new to start a new task."
	msgYourTasks          = "📋 Your tasks:"
	msgNoTasks            = "You have no tasks yet. Create one with /new"
	msgNoTasksToDelete    = "📝 You have no tasks to delete."
	msgNoTasksToComplete  = "✅ You have no unfinished tasks."
	msgChooseDelete       = "Choose a task to delete:"
	msgChooseComplete     = "Choose a task to mark as done:"
	msgBadSelection       = "That selection is not valid. Please pick a task from the list again."
	msgTaskNotFoundFormat = "Task #%d was not found."
	msgDeletedFormat      = "✅ Task #%d deleted."
	msgCompletedFormat    = "✅ Task #%d marked as done."
)
