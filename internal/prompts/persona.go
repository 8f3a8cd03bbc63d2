package prompts

// personaTemplates maps a persona tag to the template it resolves to. The
// persona library is data, not a type hierarchy: adding a persona is adding
// an entry here and a template file, nothing more.
var personaTemplates = map[string]string{
	"researcher": "agents/researcher",
	"planner":    "agents/planner",
	"executor":   "agents/executor",
	"verifier":   "agents/verifier",
	"build":      "build",
}

// Persona returns the system-prompt string for the named persona tag,
// checking the workspace override directory first.
func Persona(workspaceDir, tag string) (string, error) {
	name, ok := personaTemplates[tag]
	if !ok {
		return Get(tag)
	}
	if workspaceDir == "" {
		return Get(name)
	}
	return GetForWorkspace(workspaceDir, name)
}

// KnownPersonas returns the recognized persona tags, for validation and
// help text.
func KnownPersonas() []string {
	tags := make([]string, 0, len(personaTemplates))
	for tag := range personaTemplates {
		tags = append(tags, tag)
	}
	return tags
}
