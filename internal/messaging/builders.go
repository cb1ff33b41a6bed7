package messaging

const (
	product     = "whatsapp"
	individual  = "individual"
	flowVersion = "3"

	expenseScreen      = "EXPENSE_FORM"
	giftingScreen      = "GIFTING_TREES"
	visitWelcomeScreen = "SITE_VISIT_WELCOME"

	// navigate opens the flow on a fixed screen; dataExchange has WhatsApp ask the
	// flow endpoint for the first screen with an INIT request.
	flowActionNavigate     = "navigate"
	flowActionDataExchange = "data_exchange"
)

// FlowRef identifies a published flow and the token it is opened with.
type FlowRef struct {
	ID    string
	Token string
}

func NewTextMessage(to, body string) *Message {
	return &Message{
		MessagingProduct: product,
		RecipientType:    individual,
		To:               to,
		Type:             "text",
		Text:             &TextContent{Body: body},
	}
}

func newFlowMessage(to, body string, params *FlowParameters) *Message {
	params.FlowMessageVersion = flowVersion
	return &Message{
		MessagingProduct: product,
		RecipientType:    individual,
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type: "flow",
			Body: &InteractiveText{Text: body},
			Action: &InteractiveAction{
				Name:       "flow",
				Parameters: params,
			},
		},
	}
}

// NewExpenseFlowMessage opens the expense form for the recipient.
func NewExpenseFlowMessage(to string, flow FlowRef) *Message {
	return newFlowMessage(to, "Click the button below to submit new expense.", &FlowParameters{
		FlowToken:         flow.Token,
		FlowID:            flow.ID,
		FlowCTA:           "Add new expense",
		FlowAction:        flowActionNavigate,
		FlowActionPayload: &FlowActionPayload{Screen: expenseScreen},
	})
}

// NewGiftTreesFlowMessage opens the gift request form with the gift date preset.
func NewGiftTreesFlowMessage(to string, flow FlowRef, giftedOn string) *Message {
	return newFlowMessage(to, "Please fill out below form in order to make gift trees request!", &FlowParameters{
		FlowToken:  flow.Token,
		FlowID:     flow.ID,
		FlowCTA:    "Form",
		FlowAction: flowActionNavigate,
		FlowActionPayload: &FlowActionPayload{
			Screen: giftingScreen,
			Data:   map[string]any{"gifted_on": giftedOn},
		},
	})
}

// NewEditRecipientsFlowMessage opens the recipients editor. The first screen is
// fetched from the flow endpoint, which loads the recipients named by flow.Token.
func NewEditRecipientsFlowMessage(to string, flow FlowRef) *Message {
	return newFlowMessage(to, "You can edit recipient emails from below form!", &FlowParameters{
		FlowToken:  flow.Token,
		FlowID:     flow.ID,
		FlowCTA:    "Edit Recipients",
		FlowAction: flowActionDataExchange,
	})
}

// NewSiteVisitFlowMessage opens the site visit registration.
func NewSiteVisitFlowMessage(to string, flow FlowRef) *Message {
	return newFlowMessage(to, "Register for our next plantation visit using the form below.", &FlowParameters{
		FlowToken:         flow.Token,
		FlowID:            flow.ID,
		FlowCTA:           "Register",
		FlowAction:        flowActionNavigate,
		FlowActionPayload: &FlowActionPayload{Screen: visitWelcomeScreen},
	})
}

// NewMainMenu is the list message sent in reply to free text.
func NewMainMenu(to string) *Message {
	return &Message{
		MessagingProduct: product,
		RecipientType:    individual,
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type:   "list",
			Header: &InteractiveHeader{Type: "text", Text: "🌱 Welcome to 14 Trees!"},
			Body:   &InteractiveText{Text: "Please select one of the options below:"},
			Action: &InteractiveAction{
				Button: "Menu Options",
				Sections: []ListSection{
					{
						Title: "🏞️ Site Visit",
						Rows: []ListRow{
							{ID: "site_visit_register", Title: "Register for site visit", Description: "Join our next plantation/site visit"},
							{ID: "site_visit_feedback", Title: "Site visit feedback", Description: "Share your experience with us"},
						},
					},
					{
						Title: "🎁 Gifting Trees",
						Rows: []ListRow{
							{ID: "gift_trees", Title: "Gift Trees", Description: "Plant trees for friends, family, or employees"},
							{ID: "track_gift_status", Title: "Track gift request", Description: "Check the progress of your gift order"},
						},
					},
					{
						Title: "💼 Add Expense",
						Rows: []ListRow{
							{ID: "submit_expense", Title: "Submit new expense", Description: "For internal 14 Trees team use only"},
						},
					},
				},
			},
		},
	}
}

func NewReadReceipt(messageID string) *Message {
	return &Message{
		MessagingProduct: product,
		Status:           "read",
		MessageID:        messageID,
	}
}
