package sqlinline

const QInsertEditAttempt = `--sql 3f1c7a52-9b0e-4d6a-a8e1-5c2f7d9b4e10
insert into edit_attempts (
    id,
    session_id,
    attempt,
    provider,
    instruction,
    locale,
    status,
    source_width,
    source_height,
    mask_bytes,
    properties,
    created_at,
    updated_at
)
values (
    $1::uuid,
    $2::uuid,
    $3::int,
    $4::text,
    $5::text,
    $6::text,
    'running',
    $7::int,
    $8::int,
    $9::int,
    '{}'::jsonb,
    now(),
    now()
)
returning created_at;
`

const QCompleteEditAttempt = `--sql 9d2e4b61-0a7f-4c3e-b5d8-1e6f3a2c7b94
update edit_attempts
set status = $2::text,
    failure_kind = nullif($3::text, ''),
    error_message = nullif($4::text, ''),
    result_key = nullif($5::text, ''),
    duration_ms = $6::bigint,
    updated_at = now()
where id = $1::uuid;
`

const QListEditAttempts = `--sql 5b8a0f3d-6e2c-4a91-9f7b-2d4c8e1a6b53
select
    id::text,
    session_id::text,
    attempt,
    provider,
    coalesce(instruction, ''),
    coalesce(locale, ''),
    status,
    coalesce(failure_kind, ''),
    coalesce(error_message, ''),
    source_width,
    source_height,
    mask_bytes,
    coalesce(result_key, ''),
    coalesce(duration_ms, 0),
    created_at,
    updated_at
from edit_attempts
where session_id = $1::uuid
order by created_at desc
limit $2::int;
`
