package postgres

import (
	"fmt"
	"strings"

	"github.com/chas-career/career-hub/internal/domain/progression"
)

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_directory", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_progression", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_schedules", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_leads_and_placements", UpSQL: migration004Up, DownSQL: migration004Down},
		{Version: 5, Name: "seed_milestone_catalog", UpSQL: seedCatalogSQL(progression.DefaultCatalog()), DownSQL: migration005Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS educations (
    id TEXT PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS career_groups (
    id TEXT PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    education_id TEXT REFERENCES educations(id) ON DELETE SET NULL,
    region VARCHAR(100) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name VARCHAR(200) NOT NULL DEFAULT '',
    email VARCHAR(320) UNIQUE,
    role VARCHAR(20) NOT NULL DEFAULT 'STUDENT',
    career_group_id TEXT REFERENCES career_groups(id) ON DELETE SET NULL,
    slack_user_id VARCHAR(50) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('STUDENT', 'TEACHER', 'ADMIN'))
);

CREATE INDEX IF NOT EXISTS idx_users_career_group ON users(career_group_id) WHERE role = 'STUDENT';

CREATE TABLE IF NOT EXISTS companies (
    id TEXT PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_company_status CHECK (status IN ('PENDING', 'APPROVED'))
);
`

const migration001Down = `
DROP TABLE IF EXISTS companies;
DROP TABLE IF EXISTS users;
DROP TABLE IF EXISTS career_groups;
DROP TABLE IF EXISTS educations;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: PROGRESSION
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS milestones (
    id TEXT PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    phase VARCHAR(10) NOT NULL,
    position INTEGER NOT NULL,

    CONSTRAINT valid_milestone_phase CHECK (phase IN ('PHASE_1', 'PHASE_2', 'PHASE_3', 'PHASE_4'))
);

-- One progression per student; concurrent first reads converge on this row.
CREATE TABLE IF NOT EXISTS student_progressions (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    current_phase VARCHAR(10) NOT NULL DEFAULT 'PHASE_1',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_current_phase CHECK (current_phase IN ('PHASE_1', 'PHASE_2', 'PHASE_3', 'PHASE_4'))
);

CREATE TABLE IF NOT EXISTS milestone_progress (
    progression_id TEXT NOT NULL REFERENCES student_progressions(id) ON DELETE CASCADE,
    milestone_id TEXT NOT NULL REFERENCES milestones(id) ON DELETE CASCADE,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (progression_id, milestone_id),
    CONSTRAINT completed_at_matches CHECK (completed OR completed_at IS NULL)
);
`

const migration002Down = `
DROP TABLE IF EXISTS milestone_progress;
DROP TABLE IF EXISTS student_progressions;
DROP TABLE IF EXISTS milestones;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PHASE SCHEDULES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS phase_schedules (
    id TEXT PRIMARY KEY,
    career_group_id TEXT NOT NULL REFERENCES career_groups(id) ON DELETE CASCADE,
    phase VARCHAR(10) NOT NULL,
    start_date TIMESTAMP WITH TIME ZONE NOT NULL,
    end_date TIMESTAMP WITH TIME ZONE NOT NULL,
    deadline TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_phase_schedule UNIQUE (career_group_id, phase),
    CONSTRAINT valid_schedule_phase CHECK (phase IN ('PHASE_1', 'PHASE_2', 'PHASE_3', 'PHASE_4')),
    CONSTRAINT valid_window CHECK (start_date <= end_date)
);

CREATE INDEX IF NOT EXISTS idx_phase_schedules_deadline ON phase_schedules(deadline) WHERE deadline IS NOT NULL;
`

const migration003Down = `
DROP TABLE IF EXISTS phase_schedules;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: LEADS & LIA PLACEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS leads (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
    contact_id TEXT,
    status VARCHAR(20) NOT NULL DEFAULT 'NEW',
    contact_attempts INTEGER NOT NULL DEFAULT 0,
    last_contact_at TIMESTAMP WITH TIME ZONE,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_lead_student_company UNIQUE (student_id, company_id),
    CONSTRAINT valid_lead_status CHECK (status IN (
        'NEW', 'CONTACTED', 'IN_DIALOG', 'MEETING_BOOKED',
        'VISITED', 'LIA_OFFERED', 'CLOSED_WON', 'CLOSED_LOST'
    )),
    CONSTRAINT valid_contact_attempts CHECK (contact_attempts >= 0)
);

CREATE INDEX IF NOT EXISTS idx_leads_student_updated ON leads(student_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS lia_placements (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    company_id TEXT NOT NULL REFERENCES companies(id),
    supervisor VARCHAR(200) NOT NULL,
    supervisor_email VARCHAR(320) NOT NULL DEFAULT '',
    start_date TIMESTAMP WITH TIME ZONE,
    end_date TIMESTAMP WITH TIME ZONE,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_placement_status CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED', 'ACTIVE', 'COMPLETED'))
);
`

const migration004Down = `
DROP TABLE IF EXISTS lia_placements;
DROP TABLE IF EXISTS leads;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: MILESTONE CATALOG SEED
// ══════════════════════════════════════════════════════════════════════════════

const migration005Down = `
DELETE FROM milestones;
`

// seedCatalogSQL renders the catalog as an idempotent INSERT.
func seedCatalogSQL(catalog []progression.Milestone) string {
	values := make([]string, 0, len(catalog))
	for _, m := range catalog {
		values = append(values, fmt.Sprintf("    (%s, %s, %s, %d)",
			quote(m.ID), quote(m.Name), quote(string(m.Phase)), m.Position))
	}
	return "INSERT INTO milestones (id, name, phase, position) VALUES\n" +
		strings.Join(values, ",\n") +
		"\nON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, phase = EXCLUDED.phase, position = EXCLUDED.position;\n"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
