package mysql

const providerColumns = `id, state, county, zip_code, service_category, provider_name, primary_category,
  address, phone, website, rating, review_count, place_id, description, created_at, updated_at`

const selectProvidersSQL = "SELECT " + providerColumns + " FROM providers"

const countProvidersSQL = "SELECT COUNT(*) FROM providers"

const getProviderSQL = selectProvidersSQL + " WHERE id = ?"

const getProviderByPlaceSQL = selectProvidersSQL + " WHERE place_id = ?"

// Note: the id is only used for new rows; an existing place_id keeps its id.
const upsertPrefix = `
INSERT INTO providers
  (id, state, county, zip_code, service_category, provider_name, primary_category,
   address, phone, website, rating, review_count, place_id, description)
VALUES `

const upsertRow = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

// Full replacement: last write wins for every upserted column.
const upsertOnDup = `
ON DUPLICATE KEY UPDATE
  state            = VALUES(state),
  county           = VALUES(county),
  zip_code         = VALUES(zip_code),
  service_category = VALUES(service_category),
  provider_name    = VALUES(provider_name),
  primary_category = VALUES(primary_category),
  address          = VALUES(address),
  phone            = VALUES(phone),
  website          = VALUES(website),
  rating           = VALUES(rating),
  review_count     = VALUES(review_count),
  description      = VALUES(description),
  updated_at       = CURRENT_TIMESTAMP
`

const distinctStatesSQL = `SELECT DISTINCT state FROM providers ORDER BY state`

const distinctCountiesSQL = `SELECT DISTINCT county FROM providers WHERE state = ? ORDER BY county`

const missingZipSQL = `SELECT id, address FROM providers WHERE zip_code IS NULL`

const setZipSQL = `UPDATE providers SET zip_code = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
