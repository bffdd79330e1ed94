package stage

import "github.com/kalambet/intervue/internal/engine"

// ScoresSchema describes interview.Scores with every category bounded to [0,10].
func ScoresSchema(desc string) *engine.Schema {
	s := engine.Object(map[string]*engine.Schema{
		"communication": engine.Number("Clarity and structure of expression", 0, 10),
		"technical":     engine.Number("Technical depth and accuracy", 0, 10),
		"behavioral":    engine.Number("Ownership, collaboration, use of concrete examples", 0, 10),
		"confidence":    engine.Number("Assurance and directness", 0, 10),
		"engagement":    engine.Number("Interest and responsiveness to the question", 0, 10),
	})
	s.Description = desc
	return s
}
