// Package questionbank supplies interview questions: fixed built-in banks per
// category, and an optional PostgreSQL/pgvector index over every question the
// system has asked before, used to pull related questions when seeding a
// resume-tailored session.
//
// The index is an enhancement, not a requirement: deployments without a
// database DSN or an embeddings provider simply draw from the built-in banks.
package questionbank

import "math/rand/v2"

// Category names a built-in question bank.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryBehavioral Category = "behavioral"
	CategoryTechnical  Category = "technical"
)

var builtin = map[Category][]string{
	CategoryGeneral: {
		"Tell me about yourself.",
		"Why do you want to work here?",
		"What are your greatest strengths?",
		"Where do you see yourself in 5 years?",
	},
	CategoryBehavioral: {
		"Tell me about a time you faced a conflict at work.",
		"Describe a situation where you showed leadership.",
		"Give me an example of a time you failed.",
	},
	CategoryTechnical: {
		"Explain a complex technical concept to a 5-year-old.",
		"How do you stay updated with the latest technology trends?",
		"Describe your process for debugging a difficult issue.",
	},
}

// Categories returns the known bank categories in a stable order.
func Categories() []Category {
	return []Category{CategoryGeneral, CategoryBehavioral, CategoryTechnical}
}

// Builtin returns a copy of the named bank. Unknown categories yield nil.
func Builtin(cat Category) []string {
	qs := builtin[cat]
	if qs == nil {
		return nil
	}
	return append([]string(nil), qs...)
}

// Quick returns the question list for a quick session: the full general bank.
func Quick() []string {
	return Builtin(CategoryGeneral)
}

// Full returns the question list for a full session: every bank concatenated,
// general first so the interview opens with an icebreaker.
func Full() []string {
	var qs []string
	for _, cat := range Categories() {
		qs = append(qs, builtin[cat]...)
	}
	return qs
}

// Sample returns up to n questions drawn without replacement from the named
// bank, in randomised order. n larger than the bank returns the whole bank.
func Sample(cat Category, n int) []string {
	qs := Builtin(cat)
	if qs == nil || n <= 0 {
		return nil
	}
	rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if n < len(qs) {
		qs = qs[:n]
	}
	return qs
}
