package sqlinline

const QBlacklistToken = `--sql f94bc2fa-2089-470d-a39f-e54e913a38a8
insert into token_blacklist (jti, user_id, expires_at, created_at)
values ($1::text, $2::bigint, $3::timestamptz, now())
on conflict (jti) do nothing;
`

const QTokenBlacklisted = `--sql cfd1987a-da3e-4ee1-b85a-5d2a5fde9b00
select exists(select 1 from token_blacklist where jti = $1::text);
`

const QPurgeExpiredTokens = `--sql c60fc6ee-e5ed-47c5-b1b3-3de957a26d4c
delete from token_blacklist where expires_at < $1::timestamptz;
`
