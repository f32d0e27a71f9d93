// Package converse samples extracted facts into simulated patient/doctor
// dialogues.
package converse

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dgallion1/docdialog/internal/extract"
)

// Speaker identifies who utters a turn.
type Speaker string

const (
	SpeakerPatient Speaker = "patient"
	SpeakerDoctor  Speaker = "doctor"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "Medical Case Discussion"

const (
	minFactsPerConversation = 3
	maxFactsPerConversation = 5
)

// Turn is one utterance. SourceReference is only set on doctor turns.
type Turn struct {
	TurnID          int     `json:"turn_id"`
	Speaker         Speaker `json:"speaker"`
	Text            string  `json:"text"`
	SourceReference string  `json:"source_reference,omitempty"`
}

// Conversation is an ordered run of patient/doctor turn pairs built from
// facts no other conversation of the same run uses.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
	FactIDs   []string  `json:"fact_ids"`
	Turns     []Turn    `json:"turns"`
}

// Synthesizer holds the per-run sampling state: the random source, the set of
// fact ids already placed in a conversation and the conversation counter.
// It is not safe for concurrent use.
type Synthesizer struct {
	Topic string
	Rand  *rand.Rand
	Now   func() time.Time

	used map[string]bool
	next int
}

// NewSynthesizer returns a synthesizer for one run. A nil rng is replaced by
// a time-seeded source.
func NewSynthesizer(topic string, rng *rand.Rand) *Synthesizer {
	if topic == "" {
		topic = DefaultTopic
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &Synthesizer{
		Topic: topic,
		Rand:  rng,
		Now:   func() time.Time { return time.Now().UTC() },
		used:  make(map[string]bool),
		next:  1,
	}
}

// NewRand returns a PCG source seeded with seed, or with the clock when seed
// is zero.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Used reports whether the fact id has already been placed in a conversation.
func (s *Synthesizer) Used(id string) bool {
	return s.used[id]
}

// Generate builds up to n conversations from facts. Only facts of the four
// extraction categories are eligible, and each is used at most once across
// all calls on this synthesizer. Generation stops early when fewer than three
// unused facts remain.
func (s *Synthesizer) Generate(facts []extract.Fact, n int) []Conversation {
	var pool []extract.Fact
	for _, f := range facts {
		if extract.ValidCategory(f.Category) {
			pool = append(pool, f)
		}
	}

	var out []Conversation
	for i := 0; i < n; i++ {
		var avail []extract.Fact
		for _, f := range pool {
			if !s.used[f.ID] {
				avail = append(avail, f)
			}
		}
		if len(avail) < minFactsPerConversation {
			break
		}

		k := minFactsPerConversation + s.Rand.IntN(maxFactsPerConversation-minFactsPerConversation+1)
		if k > len(avail) {
			k = len(avail)
		}
		out = append(out, s.build(s.sample(avail, k)))
	}
	return out
}

// sample picks k distinct facts without replacement via a partial
// Fisher-Yates shuffle of avail.
func (s *Synthesizer) sample(avail []extract.Fact, k int) []extract.Fact {
	for i := 0; i < k; i++ {
		j := i + s.Rand.IntN(len(avail)-i)
		avail[i], avail[j] = avail[j], avail[i]
	}
	return avail[:k]
}

func (s *Synthesizer) build(selected []extract.Fact) Conversation {
	c := Conversation{
		ID:        fmt.Sprintf("conv_%03d", s.next),
		Topic:     s.Topic,
		CreatedAt: s.Now(),
		Turns:     make([]Turn, 0, 2*len(selected)),
	}
	s.next++

	turn := 1
	for _, f := range selected {
		s.used[f.ID] = true
		c.FactIDs = append(c.FactIDs, f.ID)
		c.Turns = append(c.Turns,
			Turn{TurnID: turn, Speaker: SpeakerPatient, Text: PatientPhrasing(f.Question)},
			Turn{TurnID: turn + 1, Speaker: SpeakerDoctor, Text: DoctorReply(f.Answer), SourceReference: f.SourceReference()},
		)
		turn += 2
	}
	return c
}

// PatientPhrasing rewrites an extracted question into what a patient would
// ask. The first matching pattern wins.
func PatientPhrasing(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "what are the symptoms"):
		return "I've been feeling unwell lately. Could these be symptoms of something serious?"
	case strings.Contains(q, "how is"):
		return "How can this condition be treated?"
	case strings.Contains(q, "what causes"):
		return "Do we know what causes this condition?"
	case strings.Contains(q, "what is"):
		return "Can you explain what this disease is?"
	default:
		return "I have some concerns about my health. Can you help explain?"
	}
}

// DoctorReply wraps a fact answer in the doctor's templated sentence.
func DoctorReply(answer string) string {
	a := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(answer)), ".")
	return "Based on your description, " + a + "."
}
