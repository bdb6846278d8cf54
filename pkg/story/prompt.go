package story

import (
	"fmt"
	"strings"
)

const visionPrompt = `You are an expert in analyzing and describing visual imagery. Your task is to provide a detailed, rich, and descriptive analysis of the provided image that highlights its key features, elements, and any potential themes or moods it might evoke.

Instructions:
- Review the image and identify the key visual elements and features (e.g., colors, shapes, textures, composition, etc.).
- Describe the visual appearance of each person, including their clothing and any distinct characteristics.
- Return a JSON object with a "people" array containing one description object per person.
- Do not include any commentary or markdown. Output only the raw JSON.

Example output:
{"people":[{"description":"A tall man in a red jacket"},{"description":"A woman with short black hair"}]}`

const composerSystemPrompt = `You are a creative fiction writer. Write vivid, engaging short stories in the first person. Follow the genre and word-count constraints exactly and use every provided character name. Output only the story text.`

// buildStoryPrompt interpolates names, genre, length, and the vision-stage
// descriptions into a single instruction. Name order is preserved so the
// caller's description pairing survives into the prompt.
func buildStoryPrompt(descriptions, names []string, genre Genre, length int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following image description and the provided character names: %s, ", strings.Join(names, ", "))
	fmt.Fprintf(&b, "create a short story in the first person that is engaging and creative for a %s audience. ", genre)
	fmt.Fprintf(&b, "The story should be no more than %d words.\n\n", length)
	b.WriteString("Image Description:\n")
	b.WriteString(strings.Join(descriptions, "\n"))
	return b.String()
}
