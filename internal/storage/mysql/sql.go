package mysql

// Multi-row insert assembled in the repo; one row per business.
const insertBusinessesPrefix = `INSERT INTO businesses
  (query, name, address, website, phone, reviews_count, reviews_average, latitude, longitude, email)
VALUES `

const insertBusinessesOnDup = ` ON DUPLICATE KEY UPDATE
  website         = COALESCE(VALUES(website), businesses.website),
  reviews_count   = VALUES(reviews_count),
  reviews_average = VALUES(reviews_average),
  latitude        = COALESCE(VALUES(latitude), businesses.latitude),
  longitude       = COALESCE(VALUES(longitude), businesses.longitude),
  email           = COALESCE(VALUES(email), businesses.email),
  scraped_at      = CURRENT_TIMESTAMP
`

const listBusinessesSQL = `
SELECT
  name,
  address,
  website,
  phone,
  reviews_count,
  reviews_average,
  latitude,
  longitude,
  email
FROM businesses
WHERE query = ?
ORDER BY id ASC
`

const listGeographiesSQL = `
SELECT city, state
FROM geographies
ORDER BY id ASC
`

const listUnprocessedGeographiesSQL = `
SELECT city, state
FROM geographies
WHERE processed = 0
ORDER BY id ASC
`

const updateGeographyCoordsSQL = `
UPDATE geographies
SET latitude = ?, longitude = ?
WHERE city = ? AND state = ?
`

const markGeographyProcessedSQL = `
UPDATE geographies
SET processed = 1
WHERE city = ? AND state = ?
`
