package sqlinline

const QSelectIntegrationToken = `--sql 1f7a3c58-94e2-4b6d-8c05-d3e9a71b2f64
select token
from integration_tokens
where provider = $1
limit 1;
`

const QUpsertIntegrationToken = `--sql 8c3d1e97-0a5f-4b28-9e47-62f1b8d5c3a0
insert into integration_tokens (provider, token, properties, updated_at)
values ($1, $2, $3::jsonb, now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
