package encoder

import "strings"

// JoinTruncated joins title and abstract into the single text stream
// handed to the model, truncating to at most budget characters.
// The abstract is cut first; the title is only cut if it alone still
// exceeds the budget. A budget <= 0 disables truncation.
func JoinTruncated(title, abstract string, budget int) string {
	title = strings.TrimSpace(title)
	abstract = strings.TrimSpace(abstract)

	if budget <= 0 {
		return joinNonEmpty(title, abstract)
	}

	titleRunes := []rune(title)
	if len(titleRunes) >= budget {
		return string(titleRunes[:budget])
	}

	if abstract == "" {
		return title
	}

	// Room left for the separator plus some abstract text.
	room := budget - len(titleRunes)
	if title != "" {
		room-- // separator space
	}
	if room <= 0 {
		return title
	}

	abstractRunes := []rune(abstract)
	if len(abstractRunes) > room {
		abstractRunes = abstractRunes[:room]
	}
	return joinNonEmpty(title, string(abstractRunes))
}

func joinNonEmpty(title, abstract string) string {
	switch {
	case title == "":
		return abstract
	case abstract == "":
		return title
	default:
		return title + " " + abstract
	}
}
