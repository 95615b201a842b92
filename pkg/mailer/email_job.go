package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template selects one of the embedded template sets; Data feeds it.
type EmailJob struct {
	To       string    `json:"to"`
	Template string    `json:"template"` // "verify_email", "account_locked", "reset_password"
	Data     EmailData `json:"data"`
}

// EmailData carries the fields the templates render.
type EmailData struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	AppName    string `json:"app_name"`
	ActionURL  string `json:"action_url,omitempty"`
	ExpiresIn  string `json:"expires_in,omitempty"`
	SupportURL string `json:"support_url,omitempty"`
}
