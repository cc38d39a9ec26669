package email

// Transport drivers accepted by Config.Driver.
const (
	DriverPostmark = "postmark"
	DriverDev      = "dev"
)

// Config holds email service configuration.
// Postmark tokens are only needed when Driver is "postmark"; the dev driver
// writes messages to DevOutputDir instead of sending them.
type Config struct {
	Driver               string `env:"EMAIL_DRIVER" envDefault:"dev"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
}

// NewSender builds the EmailSender selected by cfg.Driver.
func NewSender(cfg Config) (EmailSender, error) {
	switch cfg.Driver {
	case DriverPostmark:
		return NewPostmarkClient(cfg)
	case DriverDev, "":
		return NewDevSender(cfg.DevOutputDir), nil
	default:
		return nil, ErrUnknownDriver
	}
}
