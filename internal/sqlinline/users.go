package sqlinline

const QInsertUser = `--sql 2ca58161-0f7b-4fe1-a879-686c93c98056
insert into users (username, email, password_hash, roles, profile_picture, phone_number, city, state, country, bio, is_verified, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text[], $5::text, $6::text, $7::text, $8::text, $9::text, $10::text, false, now(), now())
returning id, created_at, updated_at;
`

const QSelectUserByID = `--sql 7b1dbd96-2477-44a7-bfcb-c63d86eb457c
select id, username, email, password_hash, roles, profile_picture, phone_number, city, state, country, bio, is_verified, created_at, updated_at
from users
where id = $1::bigint
limit 1;
`

const QSelectUserByEmail = `--sql e1d4d7a7-9db2-40a2-8ccc-249551e1bc26
select id, username, email, password_hash, roles, profile_picture, phone_number, city, state, country, bio, is_verified, created_at, updated_at
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateUserProfile = `--sql f1686c0e-7033-4477-872b-17b6f60a05a6
update users set
    username = $2::text,
    roles = $3::text[],
    profile_picture = $4::text,
    phone_number = $5::text,
    city = $6::text,
    state = $7::text,
    bio = $8::text,
    updated_at = now()
where id = $1::bigint
returning updated_at;
`

const QUpdateUserPassword = `--sql 192d24dc-a24f-44e3-bc41-2621eb85761d
update users set password_hash = $2::text, updated_at = now()
where id = $1::bigint;
`

const QUpdateUserVerified = `--sql 5cce8929-092b-4feb-a888-2c4685b55121
update users set is_verified = $2::boolean, updated_at = now()
where id = $1::bigint;
`

const QDeleteUser = `--sql 856fe3cb-b986-42a5-801f-c658506629fd
delete from users where id = $1::bigint;
`
