package domain

// ResponseKind categorizes responses handed back to the gateway.
type ResponseKind string

const (
	// ResponseText is a plain text message.
	ResponseText ResponseKind = "text"
	// ResponseTaskListing is an ordered list of tasks.
	ResponseTaskListing ResponseKind = "task_listing"
	// ResponseChoiceList is an ordered list of selectable tasks.
	ResponseChoiceList ResponseKind = "choice_list"
)

// Action is what a selection does to the chosen task.
type Action string

const (
	ActionDelete   Action = "delete"
	ActionComplete Action = "complete"
)

// Valid reports whether a is a known selection action.
func (a Action) Valid() bool {
	return a == ActionDelete || a == ActionComplete
}

// Choice is one selectable entry of a choice list.
type Choice struct {
	TaskID int64  `json:"task_id"`
	Label  string `json:"label"`
	Action Action `json:"action"`
}

// Response is what the core asks the gateway to render. Text is always
// set; Tasks and Choices only for their respective kinds.
type Response struct {
	Kind    ResponseKind `json:"kind"`
	Text    string       `json:"text"`
	Tasks   []*Task      `json:"tasks,omitempty"`
	Choices []Choice     `json:"choices,omitempty"`
}

// PlainText builds a text response.
func PlainText(text string) Response {
	return Response{Kind: ResponseText, Text: text}
}

// TaskListing builds a task listing response. tasks may be empty.
func TaskListing(text string, tasks []*Task) Response {
	return Response{Kind: ResponseTaskListing, Text: text, Tasks: tasks}
}

// ChoiceList builds a choice list response offering action for each task.
func ChoiceList(text string, action Action, tasks []*Task) Response {
	choices := make([]Choice, 0, len(tasks))
	for _, t := range tasks {
		choices = append(choices, Choice{TaskID: t.ID, Label: t.Title, Action: action})
	}
	return Response{Kind: ResponseChoiceList, Text: text, Choices: choices}
}
