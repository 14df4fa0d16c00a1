package achievement

// DefaultCatalog returns the seed set of achievements. Storage is seeded
// from this list on first migration; IDs are stable and referenced by
// existing grants.
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ID:          1,
			Name:        "First Steps",
			Description: "Complete your first lesson",
			Icon:        "🎯",
			Points:      10,
			Criterion:   LessonsCompletedAtLeast,
			Threshold:   1,
		},
		{
			ID:          2,
			Name:        "Quick Learner",
			Description: "Complete 5 lessons",
			Icon:        "⚡",
			Points:      25,
			Criterion:   LessonsCompletedAtLeast,
			Threshold:   5,
		},
		{
			ID:          3,
			Name:        "AI Apprentice",
			Description: "Complete 10 lessons",
			Icon:        "🤖",
			Points:      50,
			Criterion:   LessonsCompletedAtLeast,
			Threshold:   10,
		},
		{
			ID:          4,
			Name:        "AI Master",
			Description: "Complete lessons in 5 different categories",
			Icon:        "🏆",
			Points:      100,
			Criterion:   DistinctCategoriesAtLeast,
			Threshold:   5,
		},
		{
			ID:          5,
			Name:        "Preview Master",
			Description: "Generate 10 previews",
			Icon:        "👁️",
			Points:      30,
			Criterion:   PreviewsAtLeast,
			Threshold:   10,
		},
		{
			ID:          6,
			Name:        "Bookworm",
			Description: "Bookmark 15 lessons",
			Icon:        "📚",
			Points:      20,
			Criterion:   BookmarksAtLeast,
			Threshold:   15,
		},
		{
			ID:          7,
			Name:        "Practice Makes Perfect",
			Description: "Submit 10 practice attempts",
			Icon:        "✍️",
			Points:      30,
			Criterion:   PracticeSessionsAtLeast,
			Threshold:   10,
		},
		{
			ID:          8,
			Name:        "Relentless",
			Description: "Submit 50 practice attempts",
			Icon:        "🔥",
			Points:      75,
			Criterion:   PracticeSessionsAtLeast,
			Threshold:   50,
		},
	}
}
