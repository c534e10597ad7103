package sqlinline

const QInsertScenarios = `--sql 6c1f3e0a-8b2d-4f47-9a51-2e7d9c4b1a03
insert into scenarios (scenario)
select unnest($1::text[]);
`

const QClaimScenarioAsc = `--sql 9d2a7b14-51c6-4e83-b0f2-7a6e3c95d184
select id, scenario
from scenarios
where generated = false
  and id > $1
order by id asc
limit 1;
`

const QClaimScenarioDesc = `--sql 3e8b6f25-c7a9-4d10-8e64-b51f0a2d7c96
select id, scenario
from scenarios
where generated = false
  and ($1::bigint = 0 or id < $1)
order by id desc
limit 1;
`

// QMarkScenarioGenerated only succeeds while the row is still pending, so a
// concurrent writer cannot overwrite an existing dataset.
const QMarkScenarioGenerated = `--sql a47c0d91-2f3b-4e58-86d7-c9b1e2f40a5e
update scenarios
set dataset = $2::json,
    generated = true,
    updated_at = now()
where id = $1
  and generated = false;
`

const QScenarioExists = `--sql 5b0e9c73-d4a8-4f21-a3b6-8e17f5c2d049
select generated
from scenarios
where id = $1;
`

const QSelectGeneratedDatasets = `--sql e2d54a86-7c1b-4390-bf5e-04a9d6c8e371
select dataset
from scenarios
where generated = true
  and dataset is not null
order by id asc
limit $1;
`
