package prompt

// Content is scraped site text that may be absent. An absent value and a
// present-but-empty value are distinct states.
type Content struct {
	text    string
	present bool
}

// NoContent is the absent value, used when scraping failed or was skipped.
func NoContent() Content {
	return Content{}
}

// ContentOf wraps scraped text, which may itself be empty.
func ContentOf(text string) Content {
	return Content{text: text, present: true}
}

// ContentFromStored maps the persisted column, where scraping failure is stored as "".
func ContentFromStored(text string) Content {
	if text == "" {
		return NoContent()
	}
	return ContentOf(text)
}

func (c Content) Present() bool {
	return c.present
}

// Text returns the wrapped text, or "" when absent.
func (c Content) Text() string {
	return c.text
}
