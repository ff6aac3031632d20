package flow

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "de-DE"

// Formatter renders power and percentage values for a display locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for the BCP 47 locale tag.
func NewFormatter(locale string) (*Formatter, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &Formatter{printer: message.NewPrinter(tag)}, nil
}

// Watts rounds to the nearest watt and groups thousands, e.g. "1.800 W".
func (f *Formatter) Watts(w float64) string {
	return f.printer.Sprintf("%d W", int64(math.Round(w)))
}

// Percent rounds to the nearest whole percent, e.g. "54%".
func (f *Formatter) Percent(p float64) string {
	return f.printer.Sprintf("%d%%", int64(math.Round(p)))
}
