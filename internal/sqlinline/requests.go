package sqlinline

const QInsertRequest = `--sql e9b8d9bd-fa58-4bb6-8541-4ca6d36fd607
insert into requests (user_id, donation_id, status, requested_quantity, comments, created_at)
values ($1::bigint, $2::bigint, $3::text, $4::int, $5::text, now())
returning id, created_at;
`

const QSelectRequestByID = `--sql b54dc75d-5d47-42c1-a0d5-c9fbc8d9c300
select r.id, r.user_id, r.donation_id, r.status, r.requested_quantity, r.comments, r.created_at,
       u.username, u.email, u.roles, u.profile_picture, u.phone_number, u.city, u.state
from requests r
join users u on u.id = r.user_id
where r.id = $1::bigint
limit 1;
`

const QSelectRequestForUpdate = `--sql d77d1b48-6f7f-427a-b80d-3cc5f9018020
select r.id, r.user_id, r.donation_id, r.status, r.requested_quantity, r.comments, r.created_at,
       u.username, u.email, u.roles, u.profile_picture, u.phone_number, u.city, u.state
from requests r
join users u on u.id = r.user_id
where r.id = $1::bigint
for update of r;
`

const QRequestExists = `--sql d97e4508-35cf-4474-b96d-2f39f70d9841
select exists(select 1 from requests where user_id = $1::bigint and donation_id = $2::bigint);
`

const QCountRequestsByDonation = `--sql 693881e9-58a2-4e38-b574-bf57984403f2
select count(*)
from requests
where donation_id = $1::bigint
  and ($2::text = '' or status = $2::text);
`

const QListRequestsByUser = `--sql cff0345a-e3c7-4dc4-9abc-e5ac1d41ba51
select r.id, r.user_id, r.donation_id, r.status, r.requested_quantity, r.comments, r.created_at,
       d.id, d.donor_id, d.item_name, d.description, d.category, d.quantity, d.image, d.status, d.created_at,
       u.username, u.email, u.roles, u.profile_picture, u.phone_number, u.city, u.state
from requests r
join donations d on d.id = r.donation_id
join users u on u.id = d.donor_id
where r.user_id = $1::bigint
order by r.created_at desc, r.id desc;
`

const QListRequestsByDonor = `--sql 1cf0746b-e84e-4710-8a9d-f1a7fb5bb1c2
select r.id, r.user_id, r.donation_id, r.status, r.requested_quantity, r.comments, r.created_at,
       u.username, u.email, u.roles, u.profile_picture, u.phone_number, u.city, u.state
from requests r
join donations d on d.id = r.donation_id
join users u on u.id = r.user_id
where d.donor_id = $1::bigint
order by r.created_at desc, r.id desc;
`

const QUpdateRequestStatus = `--sql 53e3abad-6662-40ad-a563-c220f2c2a116
update requests set status = $2::text
where id = $1::bigint;
`

const QRejectPendingRequests = `--sql 9741c6bb-d4d5-48ad-ac7b-b7d013696554
update requests set status = 'REJECTED'
where donation_id = $1::bigint
  and id <> $2::bigint
  and status = 'PENDING';
`

const QCountPendingForDonor = `--sql bcb5ec65-d9cc-4929-b242-1c1bc8d08726
select count(*)
from requests r
join donations d on d.id = r.donation_id
where d.donor_id = $1::bigint
  and r.status = 'PENDING';
`

const QCountPendingByUser = `--sql bf58c2d4-1c7c-49ca-a9e3-dd563c7d524e
select count(*)
from requests
where user_id = $1::bigint
  and status = 'PENDING';
`
