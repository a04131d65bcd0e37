package sqlinline

const QEnsureSchema = `--sql c4e7a9b2-1d3f-4e5a-8b6c-7f0a2d9e3b18
create table if not exists integration_tokens (
    id uuid primary key default gen_random_uuid(),
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists edit_attempts (
    id uuid primary key,
    session_id uuid not null,
    attempt int not null,
    provider text not null,
    instruction text,
    locale text,
    status text not null,
    failure_kind text,
    error_message text,
    source_width int not null,
    source_height int not null,
    mask_bytes int not null,
    result_key text,
    duration_ms bigint,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create index if not exists edit_attempts_session_idx on edit_attempts (session_id, created_at desc);
`
