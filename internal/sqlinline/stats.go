package sqlinline

const QStatsSummary = `--sql a50a6590-e044-462b-be08-002c7aee8334
select
  (select count(*) from users) as total_users,
  (select count(*) from donations) as total_donations,
  (select coalesce(sum(quantity), 0) from donations where status = 'AVAILABLE') as available_items,
  (select count(*) from donations where status = 'CLAIMED') as claimed_donations,
  (select count(*) from requests where status in ('APPROVED', 'CLAIMED')) as approved_requests,
  (select coalesce(sum(requested_quantity), 0) from requests where status in ('APPROVED', 'CLAIMED')) as items_shared;
`
