package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Language picks the language of labels and messages.
	Language string `env:"DOCENT_UI_LANGUAGE" envDefault:"ko"`

	// Width caps the transcript width. Zero follows the terminal.
	Width uint `env:"DOCENT_WIDTH"`

	// Highlight is the background color of the sentence being spoken.
	Highlight string `env:"DOCENT_HIGHLIGHT" envDefault:"226"`

	AltScreen   bool `env:"DOCENT_ALT_SCREEN"`
	EnableMouse bool

	// Title is shown above the transcript, e.g. the photo's file name.
	Title string
}
