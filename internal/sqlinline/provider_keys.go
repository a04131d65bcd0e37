package sqlinline

// Provider keys live in integration_tokens, one row per provider.

const QSelectProviderKey = `--sql 3b9f61c2-5e0a-4d87-9c14-a2f7e08d6b53
select token, updated_at
from integration_tokens
where provider = $1::text;
`

// QPutProviderKey replaces the key and merges the new properties over the
// stored ones.
const QPutProviderKey = `--sql e51c7d08-94b2-4a6f-8d3e-0f6a2c91b7d4
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now()
returning updated_at;
`

const QDeleteProviderKey = `--sql 7a20e4f9-c3d1-4b65-a8f2-6d9e13b05c8a
delete from integration_tokens
where provider = $1::text;
`
