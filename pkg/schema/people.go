package schema

// People is the structured vision-stage payload.
type People struct {
	People []Person `json:"people"`
}

// Person holds one detected person's appearance description.
type Person struct {
	Description string `json:"description"`
}

// Descriptions flattens the payload into the ordered description list the
// pipeline works with, skipping blank entries.
func (p People) Descriptions() []string {
	out := make([]string, 0, len(p.People))
	for _, person := range p.People {
		if person.Description == "" {
			continue
		}
		out = append(out, person.Description)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
