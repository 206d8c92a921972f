package agent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KnowledgeBase holds the business profile used to answer general
// enquiries. It is loaded from a YAML file; when no path is configured the
// built-in default profile is used.
type KnowledgeBase struct {
	BusinessName string    `yaml:"business_name"`
	Tagline      string    `yaml:"tagline"`
	Address      string    `yaml:"address"`
	Hours        Hours     `yaml:"hours"`
	Contact      Contact   `yaml:"contact"`
	Values       []string  `yaml:"values"`
	Services     []Service `yaml:"services"`
	FAQs         []FAQ     `yaml:"faqs"`

	entries []kbEntry
}

type Hours struct {
	Weekdays string `yaml:"weekdays"`
	Saturday string `yaml:"saturday"`
	Sunday   string `yaml:"sunday"`
}

type Contact struct {
	Phone string `yaml:"phone"`
	Email string `yaml:"email"`
}

type Service struct {
	Name        string   `yaml:"name"`
	Duration    string   `yaml:"duration"`
	Price       string   `yaml:"price"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

type FAQ struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Tags     []string `yaml:"tags"`
}

type kbEntry struct {
	title    string
	answer   string
	keywords []string
}

// LoadKnowledgeBase reads a profile from path, falling back to the default
// profile when path is empty.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	kb := defaultKnowledgeBase()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge base: %w", err)
		}
		if err := yaml.Unmarshal(data, kb); err != nil {
			return nil, fmt.Errorf("parse knowledge base: %w", err)
		}
	}
	kb.buildEntries()
	return kb, nil
}

func defaultKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		BusinessName: "Melbourne Athletic Development",
		Tagline:      "performance testing and athletic coaching in the heart of Melbourne",
		Address:      "Level 2, 45 Collins Street, Melbourne",
		Hours: Hours{
			Weekdays: "weekdays 6am to 8pm",
			Saturday: "Saturday 8am to 2pm",
			Sunday:   "closed Sunday",
		},
		Contact: Contact{Phone: "03 9000 1122", Email: "hello@melbourneathletic.example"},
		Values:  []string{"evidence-based coaching", "long-term athlete development", "honest feedback"},
		Services: []Service{
			{
				Name:        "High Performance Testing",
				Duration:    "90 minutes",
				Price:       "249",
				Description: "Full battery of strength, speed, and aerobic assessments with a written report.",
				Keywords:    []string{"testing", "assessment", "vo2", "performance"},
			},
			{
				Name:        "Strength Coaching Session",
				Duration:    "60 minutes",
				Price:       "129",
				Description: "One-on-one coached strength session programmed to your goals.",
				Keywords:    []string{"strength", "coaching", "gym", "lifting"},
			},
			{
				Name:        "Recovery Session",
				Duration:    "45 minutes",
				Price:       "89",
				Description: "Guided recovery including mobility work and compression therapy.",
				Keywords:    []string{"recovery", "mobility", "compression"},
			},
		},
		FAQs: []FAQ{
			{
				Question: "Do I need a referral?",
				Answer:   "No referral is needed; anyone can book a session directly.",
				Tags:     []string{"referral", "doctor", "need"},
			},
			{
				Question: "Is parking available?",
				Answer:   "There is paid parking under the building and Parliament Station is three minutes away.",
				Tags:     []string{"parking", "park", "transport", "train"},
			},
		},
	}
}

func (kb *KnowledgeBase) buildEntries() {
	entries := []kbEntry{
		{
			title:    "Address",
			answer:   fmt.Sprintf("We are located at %s.", kb.Address),
			keywords: []string{"where", "address", "located", "location"},
		},
		{
			title:    "Hours",
			answer:   fmt.Sprintf("We are open %s, %s, and %s.", kb.Hours.Weekdays, kb.Hours.Saturday, kb.Hours.Sunday),
			keywords: []string{"hours", "open", "close", "opening", "closing", "when"},
		},
		{
			title:    "Contact",
			answer:   fmt.Sprintf("You can reach us on %s or %s.", kb.Contact.Phone, kb.Contact.Email),
			keywords: []string{"contact", "phone", "email", "call", "number"},
		},
		{
			title:    "Values",
			answer:   fmt.Sprintf("We believe in %s.", strings.Join(kb.Values, ", ")),
			keywords: []string{"philosophy", "values", "approach"},
		},
	}
	for _, svc := range kb.Services {
		entries = append(entries, kbEntry{
			title:    svc.Name,
			answer:   fmt.Sprintf("%s runs for %s at $%s. %s", svc.Name, svc.Duration, svc.Price, svc.Description),
			keywords: append([]string{strings.ToLower(svc.Name)}, svc.Keywords...),
		})
	}
	for _, faq := range kb.FAQs {
		entries = append(entries, kbEntry{title: faq.Question, answer: faq.Answer, keywords: faq.Tags})
	}
	kb.entries = entries
}

// Search returns the best keyword-scored answer for the query, or "" when
// nothing matches. Longer keyword hits outweigh shorter ones.
func (kb *KnowledgeBase) Search(query string) string {
	lower := strings.ToLower(query)
	best := ""
	bestScore := 0
	for _, entry := range kb.entries {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				score += len(kw)
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.answer
		}
	}
	return best
}

// BusinessSummary is the one-line brand blurb used in prompts.
func (kb *KnowledgeBase) BusinessSummary() string {
	return fmt.Sprintf("%s: %s", kb.BusinessName, kb.Tagline)
}

// ListServices renders the service catalogue for prompts.
func (kb *KnowledgeBase) ListServices() string {
	parts := make([]string, 0, len(kb.Services))
	for _, svc := range kb.Services {
		parts = append(parts, fmt.Sprintf("%s (%s) - $%s", svc.Name, svc.Duration, svc.Price))
	}
	return strings.Join(parts, "; ")
}
