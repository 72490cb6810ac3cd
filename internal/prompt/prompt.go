// Package prompt builds the instruction sent to the model alongside the image.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bstardust/htgen/internal/geocode"
)

const (
	baseClause = "Analyze this image and generate a list of relevant hashtags that describe its content, style, mood, and key elements."

	locationClause = "When generating the hashtags consider that the picture is taken in %s."

	topicClause = "The generated hashtags must be connected to the user-provided topic: %s."

	formatClause = "Return only the hashtags, separated by spaces, without any additional text. " +
		"Each hashtag should start with #. " +
		"Limit the number of hashtags to 20 and sort them by relevance."

	languageClause = "The language of the hashtag must be: %s - international terms are allowed, if used in the context of the image."
)

// Build assembles the prompt. Clause order is fixed: base, location, topic, format, language.
// The location clause is omitted when neither city nor country is known, the topic clause
// when topic is blank.
func Build(language, topic string, place geocode.Place) string {
	clauses := []string{baseClause}

	if where := Location(place); where != "" {
		clauses = append(clauses, fmt.Sprintf(locationClause, where))
	}

	if topic = strings.TrimSpace(topic); topic != "" {
		clauses = append(clauses, fmt.Sprintf(topicClause, topic))
	}

	clauses = append(clauses, formatClause, fmt.Sprintf(languageClause, strings.TrimSpace(language)))

	return strings.Join(clauses, " ")
}

// Location renders "city, country", or whichever of the two is known
func Location(place geocode.Place) string {
	city := strings.TrimSpace(place.City)
	country := strings.TrimSpace(place.Country)

	switch {
	case city != "" && country != "":
		return city + ", " + country
	case country != "":
		return country
	default:
		return city
	}
}
