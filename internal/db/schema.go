package db

// SchemaSQL defines the platform tables the snapshot is read from.
// Fields the CRUD layer may omit are optional.
const SchemaSQL = `
    -- ==========================================================================
    -- EVENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS event SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON event TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS start_date ON event TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS end_date ON event TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS location ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS organizer_id ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS capacity ON event TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS registered_count ON event TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS status ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS revenue ON event TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS created_at ON event TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS event_start_date ON event FIELDS start_date;

    -- ==========================================================================
    -- USER TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS user SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON user TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS email ON user TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS company ON user TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS industry ON user TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS role ON user TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS interests ON user TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS created_at ON user TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS user_email ON user FIELDS email;

    -- ==========================================================================
    -- REGISTRATION TABLE (legacy attendee source)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS registration SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS event_id ON registration TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS user_id ON registration TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS first_name ON registration TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS last_name ON registration TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS email ON registration TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS company ON registration TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS job_title ON registration TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS form_responses ON registration TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON registration TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS registration_created_at ON registration FIELDS created_at;
    DEFINE INDEX IF NOT EXISTS registration_user ON registration FIELDS user_id;
`
