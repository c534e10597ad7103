package sqlinline

const QListIncidents = `--sql 0b6e4d27-3a91-4c85-b7f0-19d2e8c6a453
select id, description, actions_taken, rca, resolution, status
from incident
order by id asc;
`

const QGetIncident = `--sql 74f1a9c3-6e20-4b5d-8a17-d3c05b92e6f8
select id, description, actions_taken, rca, resolution, status
from incident
where id = $1;
`

const QInsertIncident = `--sql c5a83e60-1d4f-4297-9b2e-7f60a4d1c8b5
insert into incident (description, actions_taken, status)
values ($1, $2, 'OPEN')
returning id, description, actions_taken, rca, resolution, status;
`

// QUpdateIncident leaves a column untouched when its parameter is null.
const QUpdateIncident = `--sql 2e9d07b8-5c63-4a1f-86e4-b0f3c7a2d915
update incident
set rca = coalesce($2, rca),
    resolution = coalesce($3, resolution),
    status = coalesce($4, status)
where id = $1
returning id, description, actions_taken, rca, resolution, status;
`
