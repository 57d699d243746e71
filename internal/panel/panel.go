// Package panel holds the fixed set of simulated interviewer personas and the
// round-robin rotation that assigns one to each question.
package panel

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Voice describes the speech-synthesis parameters for a persona. The server
// only forwards these to the speaking surface; it never interprets them.
type Voice struct {
	Name   string  `yaml:"name" json:"name"`
	Gender string  `yaml:"gender" json:"gender"`
	Rate   float64 `yaml:"rate" json:"rate"`
	Pitch  float64 `yaml:"pitch" json:"pitch"`
}

// Persona is one member of the interview panel. All fields are required;
// Load validates them so the rest of the system never checks for blanks.
type Persona struct {
	Name      string `yaml:"name" json:"name"`
	Role      string `yaml:"role" json:"role"`
	Style     string `yaml:"style" json:"style"`
	Specialty string `yaml:"specialty" json:"specialty"`
	Intro     string `yaml:"intro" json:"intro"`
	Voice     Voice  `yaml:"voice" json:"voice"`
}

// Panel is an ordered, immutable list of personas.
type Panel struct {
	personas []Persona
}

// Default returns the built-in panel of four interviewers.
func Default() *Panel {
	return &Panel{personas: []Persona{
		{
			Name:      "Dr. Arjun Sharma",
			Role:      "Principal Software Architect",
			Style:     "analytical and methodical, focuses on system design and architecture",
			Specialty: "system design, architecture, scalability",
			Intro:     "I have over 20 years of experience building scalable systems for enterprises. I enjoy diving deep into architecture and design challenges.",
			Voice:     Voice{Name: "Google UK English Male", Gender: "male", Rate: 1.0, Pitch: 0.9},
		},
		{
			Name:      "Priya Venkatesh",
			Role:      "Senior Engineering Manager",
			Style:     "pragmatic and business-focused, interested in leadership and teamwork",
			Specialty: "leadership, teamwork, project management",
			Intro:     "I lead cross-functional teams and focus on innovation and delivery. I'm passionate about mentorship and building strong engineering cultures.",
			Voice:     Voice{Name: "Google UK English Female", Gender: "female", Rate: 1.1, Pitch: 1.3},
		},
		{
			Name:      "Vikram Mehta",
			Role:      "Lead Backend Developer",
			Style:     "code-oriented and detail-driven, focuses on backend and implementation",
			Specialty: "backend coding, technical implementation, problem-solving",
			Intro:     "I specialize in backend development and distributed systems. I love solving complex problems and optimizing APIs.",
			Voice:     Voice{Name: "Google US English", Gender: "male", Rate: 1.05, Pitch: 1.1},
		},
		{
			Name:      "Divya Patel",
			Role:      "DevOps Specialist",
			Style:     "automation-focused and security-conscious, specializes in infrastructure and operations",
			Specialty: "DevOps, infrastructure, automation, security",
			Intro:     "I'm passionate about automation, cloud infrastructure, and security best practices. I help teams deliver faster and safer.",
			Voice:     Voice{Name: "Google US English Female", Gender: "female", Rate: 1.0, Pitch: 1.5},
		},
	}}
}

// New builds a panel from an explicit persona list and validates it.
func New(personas []Persona) (*Panel, error) {
	p := &Panel{personas: personas}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a panel definition from a YAML file and validates it.
func Load(filename string) (*Panel, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading panel file %s: %w", filename, err)
	}

	var personas []Persona
	if err := yaml.Unmarshal(data, &personas); err != nil {
		return nil, fmt.Errorf("parsing panel file %s: %w", filename, err)
	}

	p := &Panel{personas: personas}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("validating panel file %s: %w", filename, err)
	}

	return p, nil
}

func (p *Panel) validate() error {
	if len(p.personas) == 0 {
		return fmt.Errorf("panel must contain at least one persona")
	}

	for i, persona := range p.personas {
		for field, value := range map[string]string{
			"name":      persona.Name,
			"role":      persona.Role,
			"style":     persona.Style,
			"specialty": persona.Specialty,
			"intro":     persona.Intro,
		} {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("persona %d: %s is required", i, field)
			}
		}

		if persona.Voice.Rate <= 0 {
			return fmt.Errorf("persona %d (%s): voice rate must be positive", i, persona.Name)
		}
		if persona.Voice.Pitch <= 0 {
			return fmt.Errorf("persona %d (%s): voice pitch must be positive", i, persona.Name)
		}
	}

	return nil
}

// For returns the persona assigned to the given question index. The mapping
// is personas[index mod len] and is stable across repeated calls, which the
// voice selection and interviewer labels rely on.
func (p *Panel) For(index int) Persona {
	return p.personas[index%len(p.personas)]
}

// Size returns the number of personas on the panel.
func (p *Panel) Size() int {
	return len(p.personas)
}

// Personas returns a copy of the persona list in rotation order.
func (p *Panel) Personas() []Persona {
	out := make([]Persona, len(p.personas))
	copy(out, p.personas)
	return out
}
