package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_content",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_ledger_and_progress",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_practice",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_achievements",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
		{
			Version: 5,
			Name:    "create_leaderboard",
			UpSQL:   migration005Up,
			DownSQL: migration005Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	display_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lessons (
	id BIGSERIAL PRIMARY KEY,
	category_id BIGINT NOT NULL REFERENCES categories(id),
	title TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	display_order INTEGER NOT NULL DEFAULT 0,
	published BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lessons_category ON lessons(category_id, display_order);

CREATE TABLE IF NOT EXISTS challenges (
	id BIGSERIAL PRIMARY KEY,
	lesson_id BIGINT REFERENCES lessons(id),
	title TEXT NOT NULL,
	prompt TEXT NOT NULL,
	difficulty TEXT NOT NULL DEFAULT 'medium',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS challenges;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS categories;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS activity_events (
	seq BIGSERIAL PRIMARY KEY,
	id UUID NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	subject_id BIGINT NOT NULL DEFAULT 0,
	payload JSONB,
	recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_activity_events_user_recent
	ON activity_events(user_id, recorded_at DESC, seq DESC);

CREATE TABLE IF NOT EXISTS user_progress (
	user_id TEXT NOT NULL,
	lesson_id BIGINT NOT NULL REFERENCES lessons(id),
	progress INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMP WITH TIME ZONE,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, lesson_id)
);

CREATE INDEX IF NOT EXISTS idx_user_progress_user ON user_progress(user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS user_bookmarks (
	user_id TEXT NOT NULL,
	lesson_id BIGINT NOT NULL REFERENCES lessons(id),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, lesson_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS user_bookmarks;
DROP TABLE IF EXISTS user_progress;
DROP TABLE IF EXISTS activity_events;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS practice_stats (
	user_id TEXT PRIMARY KEY,
	total_sessions INTEGER NOT NULL DEFAULT 0,
	average_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	best_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_minutes INTEGER NOT NULL DEFAULT 0,
	last_practiced_at TIMESTAMP WITH TIME ZONE
);

CREATE TABLE IF NOT EXISTS practice_sessions (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	challenge_id BIGINT NOT NULL REFERENCES challenges(id),
	response TEXT NOT NULL,
	score DOUBLE PRECISION NOT NULL,
	feedback TEXT NOT NULL DEFAULT '',
	breakdown JSONB,
	suggestions TEXT[],
	submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_practice_sessions_user
	ON practice_sessions(user_id, submitted_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS practice_sessions;
DROP TABLE IF EXISTS practice_stats;
`

const migration004Up = `
CREATE TABLE IF NOT EXISTS achievements (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL,
	icon TEXT NOT NULL DEFAULT '',
	points INTEGER NOT NULL DEFAULT 0,
	criterion TEXT NOT NULL,
	threshold INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_achievements (
	user_id TEXT NOT NULL,
	achievement_id BIGINT NOT NULL REFERENCES achievements(id),
	earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, achievement_id)
);

INSERT INTO achievements (id, name, description, icon, points, criterion, threshold) VALUES
	(1, 'First Steps', 'Complete your first lesson', '🎯', 10, 'lessons_completed_at_least', 1),
	(2, 'Quick Learner', 'Complete 5 lessons', '⚡', 25, 'lessons_completed_at_least', 5),
	(3, 'AI Apprentice', 'Complete 10 lessons', '🤖', 50, 'lessons_completed_at_least', 10),
	(4, 'AI Master', 'Complete lessons in 5 different categories', '🏆', 100, 'distinct_categories_completed_at_least', 5),
	(5, 'Preview Master', 'Generate 10 previews', '👁️', 30, 'previews_at_least', 10),
	(6, 'Bookworm', 'Bookmark 15 lessons', '📚', 20, 'bookmarks_at_least', 15),
	(7, 'Practice Makes Perfect', 'Submit 10 practice attempts', '✍️', 30, 'practice_sessions_at_least', 10),
	(8, 'Relentless', 'Submit 50 practice attempts', '🔥', 75, 'practice_sessions_at_least', 50)
ON CONFLICT (id) DO NOTHING;
`

const migration004Down = `
DROP TABLE IF EXISTS user_achievements;
DROP TABLE IF EXISTS achievements;
`

const migration005Up = `
CREATE TABLE IF NOT EXISTS leaderboard_entries (
	user_id TEXT NOT NULL,
	challenge_id BIGINT NOT NULL REFERENCES challenges(id),
	score DOUBLE PRECISION NOT NULL,
	achieved_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	session_id UUID NOT NULL REFERENCES practice_sessions(id),
	PRIMARY KEY (user_id, challenge_id)
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_challenge_rank
	ON leaderboard_entries(challenge_id, score DESC, achieved_at ASC);
`

const migration005Down = `
DROP TABLE IF EXISTS leaderboard_entries;
`
