package interviewer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/intervue/internal/interview"
)

// rolePlaceholder in bank entries is replaced with the role title.
const rolePlaceholder = "{role}"

// Bank is the fixed question table used when the model is unavailable.
type Bank struct {
	Opening []string                                             `yaml:"opening"`
	Generic map[interview.NextIntent][]string                    `yaml:"generic"`
	Roles   map[interview.Role]map[interview.NextIntent][]string `yaml:"roles"`
}

// DefaultBank returns the built-in question table. Every intent has a generic
// list; technical and role-specific intents also have per-role lists.
func DefaultBank() *Bank {
	return &Bank{
		Opening: []string{
			"Hi, thanks for joining. This is an interview for a {role} position. To start, could you walk me through your background and what you are working on right now?",
		},
		Generic: map[interview.NextIntent][]string{
			interview.IntentAskBehavioral: {
				"Tell me about a time you disagreed with a teammate on a technical decision. How did you resolve it?",
				"Describe a project you are proud of. What was your specific contribution?",
				"Tell me about a mistake you made at work and what you changed afterwards.",
				"How do you prioritise when several urgent requests arrive at once?",
			},
			interview.IntentAskTechnical: {
				"Walk me through how you would debug a service whose latency doubled overnight.",
				"How do you decide between consistency and availability when designing a system?",
				"Explain how you would design automated tests for a feature you recently built.",
			},
			interview.IntentAskRoleSpecific: {
				"What does a good code review look like for a {role}?",
				"Which tools do you rely on most as a {role}, and why?",
				"What is a hard problem specific to {role} work that you solved recently?",
			},
			interview.IntentProbeAnswer: {
				"Could you go one level deeper on that? What exactly did you do?",
				"What would you do differently if you faced that situation again?",
				"How did you measure whether that worked?",
			},
			interview.IntentAskClosing: {
				"Where do you want to grow over the next couple of years?",
				"What kind of team environment helps you do your best work?",
				"Is there anything about your experience we have not covered that you would like to mention?",
			},
			interview.IntentEndInterview: {
				"That is all the questions I have. Thank you for your time today.",
			},
			interview.IntentContinueConversation: {
				"Let's come back to the question. Could you answer it with a specific example from your own work?",
				"I'd like to refocus on what I asked. How would you approach it in practice?",
			},
		},
		Roles: map[interview.Role]map[interview.NextIntent][]string{
			interview.RoleBackend: {
				interview.IntentAskTechnical: {
					"How would you design an idempotent API for processing payments?",
					"Explain how you would find and fix an N+1 query problem.",
					"How do you handle schema migrations on a database that cannot go offline?",
				},
				interview.IntentAskRoleSpecific: {
					"How do you decide what belongs in a synchronous request path versus a background job?",
					"Tell me how you would roll out a breaking API change to existing clients.",
				},
			},
			interview.RoleFrontend: {
				interview.IntentAskTechnical: {
					"How would you diagnose a page that becomes sluggish after a few minutes of use?",
					"Explain how you manage state that is shared across distant components.",
					"What techniques do you use to reduce time to first meaningful paint?",
				},
				interview.IntentAskRoleSpecific: {
					"How do you make sure a new component is accessible?",
					"How do you work with designers when a spec is not technically feasible?",
				},
			},
			interview.RoleFullstack: {
				interview.IntentAskTechnical: {
					"Walk me through the lifecycle of a request from the browser to the database and back.",
					"How would you design authentication that works for both a web app and a mobile client?",
					"Where do you put validation logic, and how do you keep client and server in sync?",
				},
				interview.IntentAskRoleSpecific: {
					"How do you decide whether a feature needs a new backend endpoint or can be done client side?",
					"Tell me about a feature you shipped end to end. What was the hardest layer?",
				},
			},
			interview.RoleDevOps: {
				interview.IntentAskTechnical: {
					"How would you design a zero-downtime deployment pipeline?",
					"Walk me through how you would investigate a node that keeps running out of disk.",
					"How do you manage secrets across environments?",
				},
				interview.IntentAskRoleSpecific: {
					"What alerts do you consider essential for a new service, and why?",
					"Tell me about an incident you handled. How did the postmortem change things?",
				},
			},
			interview.RoleData: {
				interview.IntentAskTechnical: {
					"How would you design a pipeline that must tolerate late-arriving events?",
					"Explain how you would detect and handle schema drift in an upstream source.",
					"How do you choose a partitioning strategy for a large table?",
				},
				interview.IntentAskRoleSpecific: {
					"How do you make sure stakeholders trust the numbers your pipelines produce?",
					"Tell me about a data quality issue you caught before it reached a dashboard.",
				},
			},
			interview.RoleMobile: {
				interview.IntentAskTechnical: {
					"How do you design an app to work well on flaky network connections?",
					"Explain how you would track down a memory leak in a mobile app.",
					"How do you handle data migrations between app versions?",
				},
				interview.IntentAskRoleSpecific: {
					"How do you balance platform conventions with a shared cross-platform design?",
					"How do you approach releasing a fix when users update slowly?",
				},
			},
		},
	}
}

// LoadBank reads a YAML question bank from path and merges it over the
// defaults. Lists in the file replace the default list for the same key.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}

	var file Bank
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing question bank %s: %w", path, err)
	}

	b := DefaultBank()
	if err := b.merge(&file); err != nil {
		return nil, fmt.Errorf("question bank %s: %w", path, err)
	}
	return b, nil
}

func (b *Bank) merge(o *Bank) error {
	if len(o.Opening) > 0 {
		if err := checkList("opening", o.Opening); err != nil {
			return err
		}
		b.Opening = o.Opening
	}
	for intent, list := range o.Generic {
		if !intent.Valid() {
			return fmt.Errorf("unknown intent %q", intent)
		}
		if err := checkList(string(intent), list); err != nil {
			return err
		}
		b.Generic[intent] = list
	}
	for role, byIntent := range o.Roles {
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", role)
		}
		if b.Roles[role] == nil {
			b.Roles[role] = make(map[interview.NextIntent][]string)
		}
		for intent, list := range byIntent {
			if !intent.Valid() {
				return fmt.Errorf("unknown intent %q for role %s", intent, role)
			}
			if err := checkList(string(role)+"."+string(intent), list); err != nil {
				return err
			}
			b.Roles[role][intent] = list
		}
	}
	return nil
}

func checkList(name string, list []string) error {
	if len(list) == 0 {
		return fmt.Errorf("%s: empty question list", name)
	}
	for i, q := range list {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("%s[%d]: empty question", name, i)
		}
	}
	return nil
}

// Lookup returns the question for intent at questionCount. Role lists take
// precedence over the generic list; the entry is chosen by
// questionCount modulo the list length.
func (b *Bank) Lookup(role interview.Role, intent interview.NextIntent, questionCount int) string {
	list := b.Roles[role][intent]
	if len(list) == 0 {
		list = b.Generic[intent]
	}
	if len(list) == 0 {
		list = b.Generic[interview.IntentAskBehavioral]
	}
	return render(list[index(questionCount, len(list))], role)
}

// OpeningQuestion returns the first question of a session.
func (b *Bank) OpeningQuestion(role interview.Role, seed int) string {
	return render(b.Opening[index(seed, len(b.Opening))], role)
}

func index(n, size int) int {
	if n < 0 {
		n = -n
	}
	return n % size
}

func render(q string, role interview.Role) string {
	return strings.ReplaceAll(q, rolePlaceholder, role.Title())
}
