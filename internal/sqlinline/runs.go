package sqlinline

const QInsertBatchRun = `--sql 5a2e8c4f-1d7b-4b90-a3e6-0f9c2d8b7e51
insert into batch_runs (
    id, started_at, finished_at, output_root,
    total, succeeded, failed, timed_out, cancelled, submission_errors, download_errors
)
values ($1::uuid, $2, $3, $4::text, $5, $6, $7, $8, $9, $10, $11)
on conflict (id) do update set
    finished_at = excluded.finished_at,
    total = excluded.total,
    succeeded = excluded.succeeded,
    failed = excluded.failed,
    timed_out = excluded.timed_out,
    cancelled = excluded.cancelled,
    submission_errors = excluded.submission_errors,
    download_errors = excluded.download_errors;
`

const QInsertBatchOutcome = `--sql c7d93b10-6e2a-4f58-b4c1-8a0e5f3d2b97
insert into batch_outcomes (
    run_id, position, asset_id, state, remote_job_id, artifact_url, path, attempts, error_message
)
values ($1::uuid, $2, $3::text, $4::text, nullif($5::text, ''), nullif($6::text, ''), nullif($7::text, ''), $8, nullif($9::text, ''))
on conflict (run_id, asset_id) do update set
    state = excluded.state,
    remote_job_id = excluded.remote_job_id,
    artifact_url = excluded.artifact_url,
    path = excluded.path,
    attempts = excluded.attempts,
    error_message = excluded.error_message;
`

const QCreateLedgerSchema = `--sql 2f6b0d94-8c3e-4a17-9e52-b1d7a4c06e38
create table if not exists integration_tokens (
    provider text primary key,
    token text not null,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create table if not exists batch_runs (
    id uuid primary key,
    started_at timestamptz not null,
    finished_at timestamptz not null,
    output_root text not null,
    total int not null,
    succeeded int not null,
    failed int not null,
    timed_out int not null,
    cancelled int not null,
    submission_errors int not null,
    download_errors int not null
);
create table if not exists batch_outcomes (
    run_id uuid not null references batch_runs(id) on delete cascade,
    position int not null,
    asset_id text not null,
    state text not null,
    remote_job_id text,
    artifact_url text,
    path text,
    attempts int not null default 0,
    error_message text,
    primary key (run_id, asset_id)
);
`
