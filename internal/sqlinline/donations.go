package sqlinline

const QInsertDonation = `--sql 4d6d7442-4eed-41cc-93b4-695e03006589
insert into donations (donor_id, item_name, description, category, quantity, image, status, created_at)
values ($1::bigint, $2::text, $3::text, $4::text, $5::int, $6::text, $7::text, now())
returning id, created_at;
`

// Donation reads share one projection: the listing followed by a donor summary.
const QSelectDonationByID = `--sql 1fd95881-9646-4f1a-bfed-d4956cc7a440
select d.id, d.donor_id, d.item_name, d.description, d.category, d.quantity, d.image, d.status, d.created_at,
       u.username, u.email, u.roles, u.profile_picture, u.phone_number, u.city, u.state
from donations d
join users u on u.id = d.donor_id
where d.id = $1::bigint
limit 1;
`

const QSelectDonationForUpdate = `--sql 28ba2367-dc7a-435c-9d50-9bc5a397cb0f
select d.id, d.donor_id, d.item_name, d.description, d.category, d.quantity, d.image, d.status, d.created_at,
       u.username, u.email, u.roles, u.profile_picture, u.phone_number, u.city, u.state
from donations d
join users u on u.id = d.donor_id
where d.id = $1::bigint
for update of d;
`

const QListDonations = `--sql 82c695b3-e544-4177-b496-db38fdb3c17f
select d.id, d.donor_id, d.item_name, d.description, d.category, d.quantity, d.image, d.status, d.created_at,
       u.username, u.email, u.roles, u.profile_picture, u.phone_number, u.city, u.state
from donations d
join users u on u.id = d.donor_id
where ($1::text = '' or d.category = $1::text)
  and ($2::text = '' or d.status = $2::text)
  and ($3::text = '' or d.item_name ilike ('%' || $3::text || '%') escape '\')
  and ($4::bigint = 0 or d.donor_id = $4::bigint)
order by d.created_at desc, d.id desc
limit $5::int offset $6::int;
`

const QUpdateDonation = `--sql 8cde8faf-65ba-43d9-84e5-6b6a242ac030
update donations set
    item_name = $2::text,
    description = $3::text,
    category = $4::text,
    quantity = $5::int,
    image = $6::text,
    status = $7::text
where id = $1::bigint;
`

const QDeleteDonation = `--sql a6a747f3-ce5f-49e8-82d9-59dbcb3b9ebc
delete from donations where id = $1::bigint;
`

const QExpireDonations = `--sql ad2b77f3-49e6-40f0-8237-33f4f6fa04c7
update donations set status = 'EXPIRED'
where status = 'AVAILABLE'
  and created_at < $1::timestamptz;
`
