package sqlinline

const QSelectProviderToken = `--sql 3c1f6a0e-5b2d-4e8f-9a71-6d0c4b9e2f18
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertProviderToken = `--sql 9e4b7d21-0a6c-4f3e-8b15-2c7a9d0e6f43
insert into integration_tokens (provider, token, created_at, updated_at)
values ($1::text, $2::text, now(), now())
on conflict (provider) do update set
    token = excluded.token,
    updated_at = now();
`
