// Package agents holds the built-in persona catalog and the directory
// of selectable backend models.
package agents

// Agent is a predefined chat persona.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Persona     string `json:"persona"`
	Category    string `json:"category"`
}

// Model is an entry in the provider-model directory.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	ModelID     string `json:"model_id"`
	IsDefault   bool   `json:"is_default"`
}

// defaultPersona covers agent IDs absent from the catalog; chat still
// works for them, just without a specialized voice.
const defaultPersona = "You are a helpful AI assistant."

var catalog = []Agent{
	{
		ID:          "ceo_coach",
		Name:        "CEO Coach",
		Description: "Get expert business advice and leadership guidance",
		Persona:     "You are an experienced CEO coach with 20+ years of experience helping executives grow their businesses. Provide practical, actionable advice on leadership, strategy, and business growth. Be concise, insightful, and focus on actionable steps.",
		Category:    "Business",
	},
	{
		ID:          "creative_writer",
		Name:        "Creative Writer",
		Description: "Collaborate on stories, scripts, and creative projects",
		Persona:     "You are a creative writing assistant. Help users brainstorm ideas, develop characters, write dialogue, and refine their creative projects. Be imaginative, supportive, and help bring their creative vision to life.",
		Category:    "Creative",
	},
	{
		ID:          "tech_mentor",
		Name:        "Tech Mentor",
		Description: "Get help with programming and technical questions",
		Persona:     "You are a tech mentor and programming expert. Help users understand programming concepts, debug code, learn new technologies, and solve technical challenges. Be clear, patient, and provide practical examples.",
		Category:    "Technology",
	},
	{
		ID:          "life_coach",
		Name:        "Life Coach",
		Description: "Personal development and life advice",
		Persona:     "You are a life coach focused on personal development and growth. Help users set goals, overcome obstacles, build confidence, and create positive change in their lives. Be empathetic, encouraging, and action-oriented.",
		Category:    "Personal Development",
	},
}

var models = []Model{
	{ID: "auto", Name: "Auto Select", Description: "Automatically chooses the best model", Provider: "auto", ModelID: "auto", IsDefault: true},

	{ID: "openai-gpt-4", Name: "GPT-4", Description: "Most capable model, best for complex tasks", Provider: "openai", ModelID: "gpt-4"},
	{ID: "openai-gpt-4-turbo", Name: "GPT-4 Turbo", Description: "Faster GPT-4, great balance", Provider: "openai", ModelID: "gpt-4-turbo"},
	{ID: "openai-gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "Fast and cost-effective", Provider: "openai", ModelID: "gpt-3.5-turbo", IsDefault: true},

	{ID: "claude-opus", Name: "Claude Opus", Description: "Most powerful Claude model", Provider: "claude", ModelID: "claude-3-opus-20240229"},
	{ID: "claude-sonnet", Name: "Claude Sonnet", Description: "Balanced performance and speed", Provider: "claude", ModelID: "claude-3-sonnet-20240229", IsDefault: true},
	{ID: "claude-haiku", Name: "Claude Haiku", Description: "Fastest Claude model", Provider: "claude", ModelID: "claude-3-haiku-20240307"},

	{ID: "gemini-ultra", Name: "Gemini Ultra", Description: "Most advanced Gemini model", Provider: "gemini", ModelID: "gemini-ultra"},
	{ID: "gemini-pro", Name: "Gemini Pro", Description: "Best for most tasks", Provider: "gemini", ModelID: "gemini-pro", IsDefault: true},
	{ID: "gemini-flash", Name: "Gemini Flash", Description: "Fast and efficient", Provider: "gemini", ModelID: "gemini-flash"},
}

// Catalog returns all predefined agents.
func Catalog() []Agent {
	out := make([]Agent, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds an agent by ID.
func Lookup(id string) (Agent, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// PersonaFor returns the agent's persona prompt, falling back to a
// generic assistant voice for unknown IDs.
func PersonaFor(id string) string {
	if a, ok := Lookup(id); ok {
		return a.Persona
	}
	return defaultPersona
}

// Models returns the model directory, optionally filtered by provider.
func Models(provider string) []Model {
	if provider == "" {
		out := make([]Model, len(models))
		copy(out, models)
		return out
	}
	var out []Model
	for _, m := range models {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// LookupModel finds a model directory entry by ID.
func LookupModel(id string) (Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
